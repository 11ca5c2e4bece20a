package services

import (
	"context"
	"sync"
	"time"

	"enrollment-portal/config"
	"enrollment-portal/logger"
	"enrollment-portal/models"
	"enrollment-portal/services/kafka"
)

func InitProducer() {
	kafka.InitProducer()
}

func Publish(topic, key string, value interface{}) error {
	return kafka.Publish(topic, key, value)
}

func IsConnected() bool {
	return kafka.IsConnected()
}

func Close() error {
	return kafka.Close()
}

func InitConsumer() error {
	return kafka.InitConsumer()
}

func StartConsumer() {
	kafka.StartConsumer()
}

func StopConsumer() error {
	return kafka.StopConsumer()
}

func IsConsumerRunning() bool {
	return kafka.IsConsumerRunning()
}

func RegisterHandler(eventType string, fn kafka.EventHandler) {
	kafka.RegisterHandler(eventType, fn)
}

func GetDLQMessages(ctx context.Context, limit int) ([]kafka.DLQMessage, error) {
	return kafka.ListDLQMessages(ctx, limit)
}

func RetryDLQMessage(ctx context.Context, messageID string) (bool, error) {
	return kafka.RetryDLQMessage(ctx, messageID)
}

func ResolveDLQMessage(ctx context.Context, messageID, notes string) error {
	return kafka.ResolveDLQMessage(ctx, messageID, notes)
}

func StartDLQAutoRetry(ctx context.Context, interval time.Duration) {
	kafka.StartDLQAutoRetry(ctx, interval)
}

// PaymentEvents publishes payment lifecycle events on the configured topic,
// keyed by order id so one order's events stay on one partition.
type PaymentEvents struct {
	topic   string
	publish func(topic, key string, value interface{}) error
	wg      sync.WaitGroup
}

func NewPaymentEvents() *PaymentEvents {
	return &PaymentEvents{topic: config.AppConfig.KafkaTopic, publish: Publish}
}

// PublishPaymentEvent is best-effort: the write happens in the background and
// a failure is only logged (Publish itself parks the event in the DLQ).
func (p *PaymentEvents) PublishPaymentEvent(_ context.Context, event models.PaymentEvent) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.publish(p.topic, event.OrderID, event); err != nil {
			logger.Warn("[EVENTS] failed to publish %s for order %s: %v", event.Type, event.OrderID, err)
		}
	}()
}

// Wait blocks until every publish started so far has returned.
func (p *PaymentEvents) Wait() {
	p.wg.Wait()
}
