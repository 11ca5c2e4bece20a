package kafka

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"enrollment-portal/config"
	"enrollment-portal/logger"
)

var (
	producer      *kafka.Writer
	producerMutex sync.Mutex
	isConnected   bool
)

// DLQTopic is where events that could not be published or handled end up.
func DLQTopic() string {
	return config.AppConfig.KafkaTopic + ".dlq"
}

// InitProducer initializes a Kafka writer using brokers from the config.
// With no brokers configured, events are disabled and Publish is a no-op.
func InitProducer() {
	producerMutex.Lock()
	defer producerMutex.Unlock()

	brokers := config.KafkaBrokerList()
	if len(brokers) == 0 {
		logger.Info("[KAFKA] events disabled (KAFKA_BROKERS is empty)")
		return
	}

	ensureTopicsExist(brokers)

	producer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		Async:        false,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireAll,
	}

	logger.Info("[KAFKA] producer initialized. Brokers=%v, Topic=%s", brokers, config.AppConfig.KafkaTopic)
	isConnected = true
}

// ensureTopicsExist creates the event and DLQ topics in the background,
// backing off while the brokers come up.
func ensureTopicsExist(brokers []string) {
	topics := []string{config.AppConfig.KafkaTopic, DLQTopic()}

	go func() {
		const maxRetries = 5
		for attempt := 0; attempt < maxRetries; attempt++ {
			time.Sleep(time.Duration(math.Pow(2, float64(attempt))) * time.Second)

			conn, err := kafka.Dial("tcp", brokers[0])
			if err != nil {
				if attempt == maxRetries-1 {
					logger.Warn("[KAFKA] could not reach broker for topic creation after %d attempts: %v", maxRetries, err)
				}
				continue
			}

			ready := 0
			for _, topic := range topics {
				err := conn.CreateTopics(kafka.TopicConfig{
					Topic:             topic,
					NumPartitions:     3,
					ReplicationFactor: 1,
				})
				if err == nil || strings.Contains(err.Error(), "already exists") {
					ready++
				}
			}
			conn.Close()

			if ready == len(topics) {
				logger.Debug("[KAFKA] topics ready: %v", topics)
				return
			}
		}
	}()
}

// Publish marshals value to JSON and writes it to topic under key, with three
// attempts and exponential backoff. Messages that never make it go to the DLQ.
func Publish(topic, key string, value interface{}) error {
	producerMutex.Lock()
	if producer == nil && config.AppConfig.KafkaBrokers != "" {
		producerMutex.Unlock()
		InitProducer()
		producerMutex.Lock()
	}
	defer producerMutex.Unlock()

	if producer == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		logger.Error("[KAFKA] error marshaling message for %s: %v", topic, err)
		return err
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := producer.WriteMessages(ctx, msg)
		cancel()

		if err == nil {
			isConnected = true
			logger.Debug("[KAFKA] published to %s key=%s (%d bytes)", topic, key, len(payload))
			return nil
		}

		lastErr = err
		isConnected = false
		if attempt < 2 {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			logger.Warn("[KAFKA] publish attempt %d/3 failed, retrying in %v: %v", attempt+1, backoff, err)
			time.Sleep(backoff)
		}
	}

	logger.Error("[KAFKA] publish to %s failed after 3 attempts: %v", topic, lastErr)
	if dlqErr := StoreDLQMessage(context.Background(), topic, key, payload, lastErr.Error()); dlqErr != nil {
		logger.Error("[KAFKA] storing failed message in DLQ: %v", dlqErr)
	}
	return lastErr
}

// IsConnected reports whether the last write succeeded.
func IsConnected() bool {
	producerMutex.Lock()
	defer producerMutex.Unlock()
	return isConnected && producer != nil
}

func Close() error {
	producerMutex.Lock()
	defer producerMutex.Unlock()

	if producer == nil {
		return nil
	}
	err := producer.Close()
	producer = nil
	isConnected = false
	return err
}
