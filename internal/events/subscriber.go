package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Subjects that change the data a filing is built from
var invoiceSubjects = []string{
	"invoice.updated",
	"invoice.deleted",
	"invoice.status_changed",
}

const taxpayerUpdatedSubject = "taxpayer.updated"

// ChangeEvent is the part of invoice and taxpayer events this service reads
type ChangeEvent struct {
	EventType string    `json:"event_type"`
	OwnerID   string    `json:"owner_id"`
	InvoiceID string    `json:"invoice_id,omitempty"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SnapshotInvalidator drops stored preview snapshots of an owner
type SnapshotInvalidator interface {
	InvalidateOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
}

// ProfileInvalidator drops a cached taxpayer profile
type ProfileInvalidator interface {
	InvalidateOwner(ctx context.Context, ownerID uuid.UUID)
}

// Subscriber handles NATS event subscriptions for the filing service
type Subscriber struct {
	conn      *nats.Conn
	snapshots SnapshotInvalidator
	profiles  ProfileInvalidator
	logger    *logrus.Entry
}

// NewSubscriber creates a new event subscriber. Either invalidator may be nil.
func NewSubscriber(natsURL string, snapshots SnapshotInvalidator, profiles ProfileInvalidator, logger *logrus.Logger) (*Subscriber, error) {
	if natsURL == "" {
		return nil, fmt.Errorf("NATS_URL not set")
	}

	conn, err := nats.Connect(natsURL,
		nats.Name("filing-service-subscriber"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Subscriber{
		conn:      conn,
		snapshots: snapshots,
		profiles:  profiles,
		logger:    logger.WithField("component", "events.subscriber"),
	}, nil
}

// Start begins listening for events
func (s *Subscriber) Start() error {
	for _, subject := range invoiceSubjects {
		if _, err := s.conn.Subscribe(subject, s.handleInvoiceChanged); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
	}
	if _, err := s.conn.Subscribe(taxpayerUpdatedSubject, s.handleTaxpayerUpdated); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", taxpayerUpdatedSubject, err)
	}

	s.logger.Info("Subscribed to invoice and taxpayer events for preview snapshot invalidation")
	return nil
}

// handleInvoiceChanged drops the owner's preview snapshots; a later export then
// reports that no matching preview exists.
func (s *Subscriber) handleInvoiceChanged(msg *nats.Msg) {
	ownerID, ok := s.decodeOwner(msg)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.invalidateSnapshots(ctx, msg.Subject, ownerID)
}

// handleTaxpayerUpdated drops the cached profile and the owner's snapshots
func (s *Subscriber) handleTaxpayerUpdated(msg *nats.Msg) {
	ownerID, ok := s.decodeOwner(msg)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if s.profiles != nil {
		s.profiles.InvalidateOwner(ctx, ownerID)
	}
	s.invalidateSnapshots(ctx, msg.Subject, ownerID)
}

func (s *Subscriber) invalidateSnapshots(ctx context.Context, subject string, ownerID uuid.UUID) {
	if s.snapshots == nil {
		return
	}

	removed, err := s.snapshots.InvalidateOwner(ctx, ownerID)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"subject":  subject,
			"owner_id": ownerID,
		}).Error("Failed to invalidate preview snapshots")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"subject":  subject,
		"owner_id": ownerID,
		"removed":  removed,
	}).Debug("Invalidated preview snapshots")
}

func (s *Subscriber) decodeOwner(msg *nats.Msg) (uuid.UUID, bool) {
	var event ChangeEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		s.logger.WithError(err).WithField("subject", msg.Subject).Error("Failed to unmarshal event")
		return uuid.Nil, false
	}

	ownerID, err := uuid.Parse(event.OwnerID)
	if err != nil {
		s.logger.WithField("subject", msg.Subject).Warn("Event has no valid owner_id, skipping")
		return uuid.Nil, false
	}
	return ownerID, true
}

// Close closes the subscriber connection
func (s *Subscriber) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}
