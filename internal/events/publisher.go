package events

import (
	"context"
	"sync"

	"github.com/Tesseract-Nexus/go-shared/events"
	"github.com/sirupsen/logrus"

	"filing-service/internal/models"
)

// FilingStream holds filing.previewed and filing.exported
const FilingStream = "FILING_EVENTS"

var (
	publisher     *Publisher
	publisherOnce sync.Once
	publisherMu   sync.RWMutex
)

// FilingEvent is the published form of models.FilingEvent
type FilingEvent struct {
	events.BaseEvent
	OwnerID            string `json:"ownerId"`
	ReportType         string `json:"reportType"`
	PeriodType         string `json:"periodType"`
	Year               int    `json:"year"`
	Value              int    `json:"value"`
	InvoiceCount       int    `json:"invoiceCount"`
	DatasetFingerprint string `json:"datasetFingerprint"`
	FileName           string `json:"fileName,omitempty"`
	PreviewMatched     string `json:"previewMatched,omitempty"`
}

func (e *FilingEvent) GetSubject() string {
	return e.EventType
}

func (e *FilingEvent) GetStream() string {
	return FilingStream
}

// NewFilingEvent converts a service event. Owners act as tenants on the bus, and
// the fingerprint is the source id so JetStream drops duplicate publishes.
func NewFilingEvent(event *models.FilingEvent) *FilingEvent {
	return &FilingEvent{
		BaseEvent: events.BaseEvent{
			EventType: string(event.Type),
			TenantID:  event.OwnerID.String(),
			SourceID:  string(event.Type) + ":" + event.DatasetFingerprint,
			Timestamp: event.OccurredAt.UTC(),
		},
		OwnerID:            event.OwnerID.String(),
		ReportType:         string(event.ReportType),
		PeriodType:         string(event.PeriodType),
		Year:               event.Year,
		Value:              event.Value,
		InvoiceCount:       event.InvoiceCount,
		DatasetFingerprint: event.DatasetFingerprint,
		FileName:           event.FileName,
		PreviewMatched:     string(event.PreviewMatched),
	}
}

// Publisher wraps the shared events publisher for filing events
type Publisher struct {
	publisher *events.Publisher
	logger    *logrus.Entry
}

// InitPublisher initializes the singleton NATS publisher. An empty natsURL disables publishing.
func InitPublisher(natsURL string, logger *logrus.Logger) error {
	var initErr error
	publisherOnce.Do(func() {
		if natsURL == "" {
			logger.Warn("NATS_URL not set, event publishing disabled")
			return
		}

		config := events.DefaultPublisherConfig(natsURL)
		config.Name = "filing-service"

		pub, err := events.NewPublisher(config, logger)
		if err != nil {
			initErr = err
			return
		}

		ctx := context.Background()
		if err := pub.EnsureStream(ctx, FilingStream, []string{"filing.>"}); err != nil {
			logger.WithError(err).Warn("Failed to ensure FILING_EVENTS stream")
		}

		publisherMu.Lock()
		publisher = &Publisher{
			publisher: pub,
			logger:    logger.WithField("component", "events.publisher"),
		}
		publisherMu.Unlock()

		logger.Info("NATS events publisher initialized for filing-service")
	})
	return initErr
}

// GetPublisher returns the singleton publisher instance, nil when publishing is disabled
func GetPublisher() *Publisher {
	publisherMu.RLock()
	defer publisherMu.RUnlock()
	return publisher
}

// PublishFilingEvent publishes a filing.previewed or filing.exported event.
// A nil publisher drops the event.
func (p *Publisher) PublishFilingEvent(ctx context.Context, event *models.FilingEvent) error {
	if p == nil || p.publisher == nil {
		return nil
	}
	return p.publisher.Publish(ctx, NewFilingEvent(event))
}

// IsConnected returns true if connected to NATS
func (p *Publisher) IsConnected() bool {
	return p != nil && p.publisher != nil && p.publisher.IsConnected()
}

// Close closes the publisher connection
func (p *Publisher) Close() {
	if p != nil && p.publisher != nil {
		p.publisher.Close()
	}
}
