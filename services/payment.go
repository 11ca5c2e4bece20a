package services

import (
	"context"
	"fmt"
	"strings"

	"enrollment-portal/config"
	"enrollment-portal/errors"
	"enrollment-portal/logger"
	"enrollment-portal/models"
	"enrollment-portal/normalizer"
)

const maxDescription = 255

// ClassCatalog lists the classes that can be paid for.
type ClassCatalog interface {
	ListClasses(ctx context.Context) ([]models.ClassRecord, error)
}

// CheckoutRequest is what the pay button posts.
type CheckoutRequest struct {
	ClassID     int64  `json:"classId"`
	UserID      int64  `json:"userId"`
	Currency    string `json:"currency,omitempty"`
	Description string `json:"description,omitempty"`
}

// PaymentService turns a checkout request into a priced payment intent.
type PaymentService struct {
	catalog  ClassCatalog
	currency string
}

func NewPaymentService(catalog ClassCatalog) *PaymentService {
	return &PaymentService{catalog: catalog, currency: config.AppConfig.DefaultCurrency}
}

// PrepareIntent looks the class up by any of its id aliases and prices the
// intent from the class fee. The amount always comes from the catalog, never
// from the request.
func (s *PaymentService) PrepareIntent(ctx context.Context, req CheckoutRequest) (models.PaymentIntent, models.ClassRecord, error) {
	if req.ClassID <= 0 {
		return models.PaymentIntent{}, models.ClassRecord{}, errors.NewInvalidParamsError("class ID required")
	}
	if req.UserID <= 0 {
		return models.PaymentIntent{}, models.ClassRecord{}, errors.NewInvalidParamsError("user ID required")
	}

	classes, err := s.catalog.ListClasses(ctx)
	if err != nil {
		if errors.IsCanceled(err) {
			return models.PaymentIntent{}, models.ClassRecord{}, err
		}
		logger.Error("[PAYMENT] loading classes for checkout: %v", err)
		return models.PaymentIntent{}, models.ClassRecord{}, errors.E(errors.OrderCreation, "could not load class price", err)
	}

	class, ok := normalizer.FindClass(classes, req.ClassID)
	if !ok {
		return models.PaymentIntent{}, models.ClassRecord{}, errors.NewNotFoundError(fmt.Sprintf("class %d not found", req.ClassID))
	}
	if class.Fee == nil || !class.Fee.IsPositive() {
		return models.PaymentIntent{}, class, errors.NewInvalidParamsError(fmt.Sprintf("class %d has no price", req.ClassID))
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.currency
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "Enrollment fee for " + class.Label()
	}
	if r := []rune(description); len(r) > maxDescription {
		description = string(r[:maxDescription])
	}

	return models.PaymentIntent{
		Amount:      *class.Fee,
		Currency:    currency,
		ClassID:     class.ID,
		UserID:      req.UserID,
		Description: description,
	}, class, nil
}
