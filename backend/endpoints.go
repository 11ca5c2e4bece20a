package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"enrollment-portal/errors"
	"enrollment-portal/models"
	"enrollment-portal/normalizer"
)

// CreateOrder asks the backend to open a provider order for intent.
func (c *Client) CreateOrder(ctx context.Context, intent models.PaymentIntent) (*models.PaymentOrder, error) {
	payload, err := c.do(ctx, http.MethodPost, "/api/payments/create", nil, intent)
	if err != nil {
		return nil, err
	}
	order, err := normalizer.NormalizeOrder(payload)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CaptureOrder captures an approved order. userID is sent only when known;
// the backend can derive it from its own session otherwise.
func (c *Client) CaptureOrder(ctx context.Context, orderID string, userID *int64) (*models.CaptureResult, error) {
	var q url.Values
	if userID != nil {
		q = url.Values{"userId": {strconv.FormatInt(*userID, 10)}}
	}
	payload, err := c.do(ctx, http.MethodPost, "/api/payments/capture/"+url.PathEscape(orderID), q, nil)
	if err != nil {
		return nil, err
	}
	result, err := normalizer.NormalizeCapture(payload, orderID)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListClasses returns every class the backend offers.
func (c *Client) ListClasses(ctx context.Context) ([]models.ClassRecord, error) {
	payload, err := c.do(ctx, http.MethodGet, "/classes", nil, nil)
	if err != nil {
		if IsNotFound(err) {
			return []models.ClassRecord{}, nil
		}
		return nil, err
	}
	return normalizer.NormalizeClasses(payload), nil
}

func (c *Client) GetClass(ctx context.Context, id int64) (models.ClassRecord, error) {
	payload, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/classes/%d", id), nil, nil)
	if err != nil {
		if IsNotFound(err) {
			return models.ClassRecord{}, errors.E(errors.NotFound, fmt.Sprintf("class %d not found", id), err)
		}
		return models.ClassRecord{}, err
	}
	return normalizer.NormalizeClass(payload)
}

func (c *Client) ListEnrollments(ctx context.Context) ([]models.EnrollmentRecord, error) {
	return c.enrollments(ctx, "/api/enrollments")
}

func (c *Client) EnrollmentsByStudent(ctx context.Context, studentID int64) ([]models.EnrollmentRecord, error) {
	return c.enrollments(ctx, fmt.Sprintf("/api/enrollments/student/%d", studentID))
}

func (c *Client) EnrollmentsByClass(ctx context.Context, classID int64) ([]models.EnrollmentRecord, error) {
	return c.enrollments(ctx, fmt.Sprintf("/api/enrollments/class/%d", classID))
}

func (c *Client) EnrollmentsByPayment(ctx context.Context, paymentID int64) ([]models.EnrollmentRecord, error) {
	return c.enrollments(ctx, fmt.Sprintf("/api/enrollments/payment/%d", paymentID))
}

// enrollments treats 404 as "none yet" rather than an error, and accepts a
// bare object, a wrapped array, or an array.
func (c *Client) enrollments(ctx context.Context, path string) ([]models.EnrollmentRecord, error) {
	payload, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		if IsNotFound(err) {
			return []models.EnrollmentRecord{}, nil
		}
		return nil, err
	}
	return normalizer.NormalizeList(payload), nil
}

// Profile kinds served by GetProfile.
const (
	ProfileStudent = "students"
	ProfileAdmin   = "admins"
)

func (c *Client) GetProfile(ctx context.Context, kind string, id int64) (models.ProfileRecord, error) {
	if kind != ProfileStudent && kind != ProfileAdmin {
		return models.ProfileRecord{}, errors.NewInvalidParamsError(fmt.Sprintf("unknown profile kind %q", kind))
	}
	payload, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/%s/%d", kind, id), nil, nil)
	if err != nil {
		if IsNotFound(err) {
			return models.ProfileRecord{}, errors.E(errors.NotFound, fmt.Sprintf("%s %d not found", kind, id), err)
		}
		return models.ProfileRecord{}, err
	}
	return normalizer.NormalizeProfile(payload)
}
