package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"enrollment-portal/config"
	"enrollment-portal/logger"
	"enrollment-portal/models"
)

// EventHandler processes one decoded payment event.
type EventHandler func(ctx context.Context, event models.PaymentEvent) error

var (
	consumer        *kafka.Reader
	consumerMutex   sync.Mutex
	consumerRunning bool
	stopConsumer    context.CancelFunc
	consumerDone    chan struct{}
	handlers        = map[string]EventHandler{}
)

// InitConsumer joins the configured consumer group on the payment topic.
func InitConsumer() error {
	consumerMutex.Lock()
	defer consumerMutex.Unlock()

	brokers := config.KafkaBrokerList()
	if len(brokers) == 0 {
		logger.Info("[KAFKA] consumer disabled (KAFKA_BROKERS is empty)")
		return nil
	}

	consumer = kafka.NewReader(kafka.ReaderConfig{
		Brokers:          brokers,
		Topic:            config.AppConfig.KafkaTopic,
		GroupID:          config.AppConfig.KafkaGroupID,
		StartOffset:      kafka.LastOffset,
		CommitInterval:   time.Second,
		MaxBytes:         10e6,
		SessionTimeout:   20 * time.Second,
		ReadBackoffMin:   100 * time.Millisecond,
		ReadBackoffMax:   1 * time.Second,
		QueueCapacity:    100,
		RebalanceTimeout: 60 * time.Second,
	})

	logger.Info("[KAFKA] consumer initialized. Brokers=%v, Topic=%s, Group=%s",
		brokers, config.AppConfig.KafkaTopic, config.AppConfig.KafkaGroupID)
	return nil
}

// RegisterHandler routes events of eventType to fn. Registering again
// replaces the previous handler.
func RegisterHandler(eventType string, fn EventHandler) {
	consumerMutex.Lock()
	defer consumerMutex.Unlock()
	handlers[eventType] = fn
	logger.Debug("[KAFKA] handler registered for %s", eventType)
}

// StartConsumer reads messages in the background until StopConsumer.
func StartConsumer() {
	consumerMutex.Lock()
	if consumer == nil {
		consumerMutex.Unlock()
		return
	}
	if consumerRunning {
		consumerMutex.Unlock()
		logger.Warn("[KAFKA] consumer already running")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	stopConsumer = cancel
	consumerDone = make(chan struct{})
	consumerRunning = true
	reader, done := consumer, consumerDone
	consumerMutex.Unlock()

	go consumeMessages(ctx, reader, done)
	logger.Info("[KAFKA] consumer started")
}

func consumeMessages(ctx context.Context, reader *kafka.Reader, done chan struct{}) {
	defer func() {
		consumerMutex.Lock()
		consumerRunning = false
		consumerMutex.Unlock()
		close(done)
	}()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if strings.Contains(err.Error(), "Group Coordinator Not Available") {
				time.Sleep(500 * time.Millisecond)
				continue
			}
			logger.Debug("[KAFKA] read failed, backing off: %v", err)
			time.Sleep(time.Second)
			continue
		}
		HandleMessage(ctx, msg)
	}
}

// HandleMessage decodes and dispatches one message, parking it in the DLQ on
// failure. It reports whether the handler succeeded.
func HandleMessage(ctx context.Context, msg kafka.Message) bool {
	return handleMessage(ctx, msg, true)
}

func handleMessage(ctx context.Context, msg kafka.Message, park bool) bool {
	fail := func(reason string) bool {
		logger.Error("[KAFKA] %s (topic=%s key=%s)", reason, msg.Topic, string(msg.Key))
		if park {
			_ = SendToDLQ(context.WithoutCancel(ctx), msg.Topic, string(msg.Key), msg.Value, reason)
		}
		return false
	}

	var event models.PaymentEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fail("failed to unmarshal event: " + err.Error())
	}
	if event.Type == "" {
		return fail("message does not contain an event type")
	}

	consumerMutex.Lock()
	fn, ok := handlers[event.Type]
	consumerMutex.Unlock()

	if !ok {
		// order_created and capture_failed are for downstream consumers
		logger.Debug("[KAFKA] no handler for %s, skipping", event.Type)
		return true
	}

	if err := fn(ctx, event); err != nil {
		return fail(fmt.Sprintf("handler for %s failed: %v", event.Type, err))
	}
	return true
}

// StopConsumer stops the read loop, waits for the in-flight message, and
// closes the reader and DLQ writer.
func StopConsumer() error {
	consumerMutex.Lock()
	if !consumerRunning || consumer == nil {
		consumerMutex.Unlock()
		return closeDLQ()
	}
	stop, done, reader := stopConsumer, consumerDone, consumer
	consumerMutex.Unlock()

	stop()
	<-done

	if err := reader.Close(); err != nil {
		logger.Error("[KAFKA] error closing consumer: %v", err)
		return err
	}
	logger.Info("[KAFKA] consumer stopped")
	return closeDLQ()
}

func IsConsumerRunning() bool {
	consumerMutex.Lock()
	defer consumerMutex.Unlock()
	return consumerRunning && consumer != nil
}
