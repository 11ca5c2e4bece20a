package kafka

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"enrollment-portal/config"
	"enrollment-portal/db"
	"enrollment-portal/logger"
)

var (
	dlqProducer *kafka.Writer
	dlqMutex    sync.Mutex

	// dbConn is swapped in tests.
	dbConn = func() *sql.DB { return db.DB }
)

// DLQMessage is one parked event awaiting retry or manual resolution.
type DLQMessage struct {
	MessageID    string    `json:"messageId"`
	Topic        string    `json:"topic"`
	Key          string    `json:"key"`
	Value        string    `json:"value"`
	ErrorMessage string    `json:"errorMessage"`
	RetryCount   int       `json:"retryCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

func initDLQProducer() {
	brokers := config.KafkaBrokerList()
	if len(brokers) == 0 {
		return
	}
	dlqProducer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        DLQTopic(),
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireAll,
	}
	logger.Info("[KAFKA] DLQ producer initialized. Topic=%s", DLQTopic())
}

// SendToDLQ parks a message that could not be handled: on the DLQ topic when
// Kafka takes it, and always in postgres when a database is configured.
func SendToDLQ(ctx context.Context, topic, key string, value []byte, errorMsg string) error {
	dlqMutex.Lock()
	if dlqProducer == nil {
		initDLQProducer()
	}
	w := dlqProducer
	dlqMutex.Unlock()

	if w != nil {
		envelope, err := json.Marshal(map[string]interface{}{
			"original_topic": topic,
			"original_key":   key,
			"original_value": string(value),
			"error_message":  errorMsg,
			"timestamp":      time.Now().Unix(),
		})
		if err == nil {
			wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = w.WriteMessages(wctx, kafka.Message{Key: []byte(key), Value: envelope})
			cancel()
		}
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "unknown topic") {
				logger.Warn("[KAFKA] DLQ topic missing on broker; disabling DLQ producer: %v", err)
				dlqMutex.Lock()
				dlqProducer = nil
				dlqMutex.Unlock()
			} else {
				logger.Warn("[KAFKA] DLQ publish failed, storing to DB: %v", err)
			}
		}
	}

	return StoreDLQMessage(ctx, topic, key, value, errorMsg)
}

// StoreDLQMessage records a failed message in portal_event_dlq.
func StoreDLQMessage(ctx context.Context, topic, key string, value []byte, errorMsg string) error {
	conn := dbConn()
	if conn == nil {
		logger.Warn("[KAFKA] no database for DLQ storage; dropping %s/%s: %s", topic, key, errorMsg)
		return nil
	}

	_, err := conn.ExecContext(ctx, `
		INSERT INTO portal_event_dlq (message_id, topic, key, value, error_message)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), topic, key, string(value), errorMsg,
	)
	if err != nil {
		logger.Error("[KAFKA] storing DLQ message: %v", err)
		return err
	}
	logger.Info("[KAFKA] DLQ message stored. Topic=%s Key=%s", topic, key)
	return nil
}

// ListDLQMessages returns unresolved messages, newest first.
func ListDLQMessages(ctx context.Context, limit int) ([]DLQMessage, error) {
	conn := dbConn()
	if conn == nil {
		return []DLQMessage{}, nil
	}

	rows, err := conn.QueryContext(ctx, `
		SELECT message_id, topic, key, value, error_message, retry_count, created_at
		FROM portal_event_dlq
		WHERE resolved = FALSE
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []DLQMessage{}
	for rows.Next() {
		var m DLQMessage
		if err := rows.Scan(&m.MessageID, &m.Topic, &m.Key, &m.Value, &m.ErrorMessage, &m.RetryCount, &m.CreatedAt); err != nil {
			logger.Error("[KAFKA] scanning DLQ message: %v", err)
			continue
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// RetryDLQMessage runs the stored message through the handler again and
// resolves it on success. It reports whether the retry succeeded.
func RetryDLQMessage(ctx context.Context, messageID string) (bool, error) {
	conn := dbConn()
	if conn == nil {
		return false, nil
	}

	var value, topic, key string
	err := conn.QueryRowContext(ctx,
		`SELECT value, topic, key FROM portal_event_dlq WHERE message_id = $1`, messageID,
	).Scan(&value, &topic, &key)
	if err != nil {
		return false, err
	}

	ok := handleMessage(ctx, kafka.Message{Topic: topic, Key: []byte(key), Value: []byte(value)}, false)

	query := `
		UPDATE portal_event_dlq
		SET retry_count = retry_count + 1, last_retry_at = NOW()
		WHERE message_id = $1`
	if ok {
		query = `
		UPDATE portal_event_dlq
		SET retry_count = retry_count + 1, last_retry_at = NOW(), resolved = TRUE, resolved_at = NOW(), notes = 'retried successfully'
		WHERE message_id = $1`
	}
	if _, err := conn.ExecContext(ctx, query, messageID); err != nil {
		return ok, err
	}
	return ok, nil
}

// ResolveDLQMessage marks a message handled by hand.
func ResolveDLQMessage(ctx context.Context, messageID, notes string) error {
	conn := dbConn()
	if conn == nil {
		return nil
	}
	_, err := conn.ExecContext(ctx, `
		UPDATE portal_event_dlq
		SET resolved = TRUE, resolved_at = NOW(), notes = $2
		WHERE message_id = $1`, messageID, notes)
	return err
}

// StartDLQAutoRetry retries a batch of unresolved messages every interval
// until ctx is done.
func StartDLQAutoRetry(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				retryUnresolved(ctx)
			}
		}
	}()
	logger.Info("[KAFKA] DLQ auto-retry every %v", interval)
}

func retryUnresolved(ctx context.Context) {
	conn := dbConn()
	if conn == nil {
		return
	}

	rows, err := conn.QueryContext(ctx, `
		SELECT message_id FROM portal_event_dlq
		WHERE resolved = FALSE AND retry_count < max_retries
		ORDER BY created_at ASC
		LIMIT 10`)
	if err != nil {
		logger.Error("[KAFKA] querying DLQ for retry: %v", err)
		return
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err == nil {
			ids = append(ids, id)
		}
	}
	rows.Close()

	resolved := 0
	for _, id := range ids {
		ok, err := RetryDLQMessage(ctx, id)
		if err != nil {
			logger.Warn("[KAFKA] DLQ retry of %s: %v", id, err)
		}
		if ok {
			resolved++
		}
	}
	if len(ids) > 0 {
		logger.Info("[KAFKA] DLQ auto-retry: %d processed, %d resolved", len(ids), resolved)
	}
}

func closeDLQ() error {
	dlqMutex.Lock()
	defer dlqMutex.Unlock()
	if dlqProducer == nil {
		return nil
	}
	err := dlqProducer.Close()
	dlqProducer = nil
	return err
}
