// internal/services/event_publisher.go
package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/javajoker/licensechain/internal/metrics"
	"github.com/javajoker/licensechain/internal/models"
)

// LicenseEvent is published after a confirmed status change.
type LicenseEvent struct {
	LicenseID uint64               `json:"license_id"`
	Action    models.AdminAction   `json:"action"`
	Status    models.LicenseStatus `json:"status"`
	Actor     string               `json:"actor"`
	TxHash    string               `json:"tx_hash"`
	Timestamp time.Time            `json:"timestamp"`
}

type EventPublisher interface {
	Publish(event *LicenseEvent) error
}

type NATSPublisher struct {
	conn       *nats.Conn
	subject    string
	maxRetries int
}

func NewNATSPublisher(conn *nats.Conn, subject string, maxRetries int) *NATSPublisher {
	return &NATSPublisher{
		conn:       conn,
		subject:    subject,
		maxRetries: maxRetries,
	}
}

func (p *NATSPublisher) Publish(event *LicenseEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	for i := 0; i <= p.maxRetries; i++ {
		err = p.conn.Publish(p.subject, data)
		if err == nil {
			metrics.RecordEventPublished(nil)
			return nil
		}
		time.Sleep(time.Duration(i*100) * time.Millisecond)
	}

	metrics.RecordEventPublished(err)
	return fmt.Errorf("publish failed after %d retries: %w", p.maxRetries, err)
}

// NopPublisher drops events when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(*LicenseEvent) error { return nil }
