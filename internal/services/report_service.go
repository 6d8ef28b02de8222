package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"filing-service/internal/apperrors"
	"filing-service/internal/filing"
	"filing-service/internal/models"
	"filing-service/internal/money"
)

// TaxpayerStore loads taxpayer profiles. A missing profile is apperrors.ErrTaxpayerNotFound.
type TaxpayerStore interface {
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*models.TaxpayerProfile, error)
}

// InvoiceStore returns the issued or paid invoices whose taxable supply date falls in
// [start, endExclusive), ordered by supply date and invoice number, with line items.
type InvoiceStore interface {
	FindForFiling(ctx context.Context, ownerID uuid.UUID, start, endExclusive time.Time) ([]models.Invoice, error)
}

// OfficeResolver resolves a local tax office code to its office assignment.
type OfficeResolver interface {
	Resolve(ctx context.Context, localCode string) (models.OfficeAssignment, error)
}

// SnapshotStore remembers the fingerprint of the last preview per owner and request.
// Get returns "" when nothing is stored.
type SnapshotStore interface {
	Save(ctx context.Context, ownerID uuid.UUID, req models.FilingRequest, fingerprint string) error
	Get(ctx context.Context, ownerID uuid.UUID, req models.FilingRequest) (string, error)
}

// EventPublisher announces previews and exports.
type EventPublisher interface {
	PublishFilingEvent(ctx context.Context, event *models.FilingEvent) error
}

// filingData is what preview and export share once preconditions hold.
type filingData struct {
	taxpayer    *models.TaxpayerProfile
	period      models.PeriodRange
	invoices    []models.Invoice
	figures     models.VatFigures
	entries     []models.ControlStatementEntry
	fingerprint string
}

// reportKind is one producible report type.
type reportKind struct {
	schemaVersion string
	summarize     func(p *models.FilingPreview, data *filingData, r money.RoundingMode)
	build         func(b *filing.Builder, in filing.Input) (*filing.Document, error)
}

var reportKinds = map[models.ReportType]reportKind{
	models.ReportTypeVatReturn: {
		schemaVersion: filing.VatReturnSchemaVersion,
		summarize: func(p *models.FilingPreview, data *filingData, r money.RoundingMode) {
			p.VatReturn = &models.VatReturnSummary{Totals: bucketTotals(data.figures, r)}
		},
		build: (*filing.Builder).BuildVatReturn,
	},
	models.ReportTypeControlStatement: {
		schemaVersion: filing.ControlStatementSchemaVersion,
		summarize: func(p *models.FilingPreview, data *filingData, r money.RoundingMode) {
			rows := make([]models.ControlStatementRow, 0, len(data.entries))
			for _, e := range data.entries {
				rows = append(rows, models.ControlStatementRow{
					InvoiceID:         e.InvoiceID,
					Reference:         e.Reference,
					Classification:    e.Classification,
					SupplyDate:        e.SupplyDate.Format(dateLayout),
					CounterpartyTaxID: e.CounterpartyTaxID,
					Net21:             r.Cents(e.Net21),
					Vat21:             r.Cents(e.Vat21),
					Net12:             r.Cents(e.Net12),
					Vat12:             r.Cents(e.Vat12),
				})
			}
			p.ControlStatement = &models.ControlStatementSummary{Entries: rows, Totals: bucketTotals(data.figures, r)}
		},
		build: (*filing.Builder).BuildControlStatement,
	},
}

const dateLayout = "2006-01-02"

func bucketTotals(f models.VatFigures, r money.RoundingMode) models.RateBucketTotals {
	return models.RateBucketTotals{
		Net21:        r.Cents(f.Net21),
		Vat21:        r.Cents(f.Vat21),
		Net12:        r.Cents(f.Net12),
		Vat12:        r.Cents(f.Vat12),
		Net0:         r.Cents(f.Net0),
		ReverseNet21: r.Cents(f.ReverseNet21),
		ReverseNet12: r.Cents(f.ReverseNet12),
		TotalVat:     r.Cents(f.StandardVat()),
	}
}

// ReportService runs filing previews and exports.
type ReportService struct {
	taxpayers TaxpayerStore
	invoices  InvoiceStore
	offices   OfficeResolver
	builder   *filing.Builder
	rounding  money.RoundingMode
	snapshots SnapshotStore
	publisher EventPublisher
	logger    *logrus.Entry
}

// NewReportService creates a report service. Snapshots and events are off until
// WithSnapshots and WithPublisher are called.
func NewReportService(
	taxpayers TaxpayerStore,
	invoices InvoiceStore,
	offices OfficeResolver,
	builder *filing.Builder,
	rounding money.RoundingMode,
	logger *logrus.Logger,
) *ReportService {
	if rounding == "" {
		rounding = money.HalfUp
	}
	return &ReportService{
		taxpayers: taxpayers,
		invoices:  invoices,
		offices:   offices,
		builder:   builder,
		rounding:  rounding,
		logger:    logger.WithField("component", "report_service"),
	}
}

// WithSnapshots enables the preview/export consistency check.
func (s *ReportService) WithSnapshots(store SnapshotStore) *ReportService {
	s.snapshots = store
	return s
}

// WithPublisher enables filing events.
func (s *ReportService) WithPublisher(publisher EventPublisher) *ReportService {
	s.publisher = publisher
	return s
}

// Preview summarises the filing for req without building the document.
func (s *ReportService) Preview(ctx context.Context, ownerID uuid.UUID, req models.FilingRequest) (*models.FilingPreview, error) {
	const op = "Preview"

	kind, data, err := s.prepare(ctx, ownerID, req)
	if err != nil {
		return nil, s.fail(op, ownerID, req, err)
	}

	preview := &models.FilingPreview{
		ReportType:         req.ReportType,
		PeriodType:         req.PeriodType,
		Year:               req.Year,
		Value:              req.Value,
		PeriodStart:        data.period.Start.Format(dateLayout),
		PeriodEnd:          data.period.EndExclusive.Format(dateLayout),
		SchemaVersion:      kind.schemaVersion,
		InvoiceCount:       len(data.invoices),
		DatasetFingerprint: data.fingerprint,
	}
	kind.summarize(preview, data, s.rounding)

	if s.snapshots != nil {
		if err := s.snapshots.Save(ctx, ownerID, req, data.fingerprint); err != nil {
			s.logger.WithError(err).WithField("owner_id", ownerID).Warn("Failed to store preview snapshot")
		}
	}

	s.publish(ctx, &models.FilingEvent{
		Type:               models.FilingEventPreviewed,
		OwnerID:            ownerID,
		ReportType:         req.ReportType,
		PeriodType:         req.PeriodType,
		Year:               req.Year,
		Value:              req.Value,
		InvoiceCount:       len(data.invoices),
		DatasetFingerprint: data.fingerprint,
	})

	return preview, nil
}

// Export builds the filing document for req.
func (s *ReportService) Export(ctx context.Context, ownerID uuid.UUID, req models.FilingRequest) (*models.FilingExport, error) {
	const op = "Export"

	kind, data, err := s.prepare(ctx, ownerID, req)
	if err != nil {
		return nil, s.fail(op, ownerID, req, err)
	}

	// The DIČ names the file and identifies the filer; a preview can go without it.
	if filing.NormalizeTaxID(data.taxpayer.TaxID) == "" {
		return nil, s.fail(op, ownerID, req, apperrors.New(op, apperrors.ErrMissingTaxpayerTaxID, ownerID.String()))
	}

	office, err := s.offices.Resolve(ctx, data.taxpayer.LocalOfficeCode)
	if err != nil {
		return nil, s.fail(op, ownerID, req, err)
	}

	doc, err := kind.build(s.builder, filing.Input{
		Request:  req,
		Taxpayer: data.taxpayer,
		Office:   office,
		Figures:  data.figures,
		Entries:  data.entries,
	})
	if err != nil {
		return nil, s.fail(op, ownerID, req, err)
	}

	matched := s.previewMatch(ctx, ownerID, req, data.fingerprint)

	s.logger.WithFields(logrus.Fields{
		"owner_id":        ownerID,
		"report_type":     req.ReportType,
		"file_name":       doc.FileName,
		"invoice_count":   len(data.invoices),
		"preview_matched": matched,
	}).Info("Filing exported")

	s.publish(ctx, &models.FilingEvent{
		Type:               models.FilingEventExported,
		OwnerID:            ownerID,
		ReportType:         req.ReportType,
		PeriodType:         req.PeriodType,
		Year:               req.Year,
		Value:              req.Value,
		InvoiceCount:       len(data.invoices),
		DatasetFingerprint: data.fingerprint,
		FileName:           doc.FileName,
		PreviewMatched:     matched,
	})

	return &models.FilingExport{
		FileName:           doc.FileName,
		Document:           doc.Content,
		DatasetFingerprint: data.fingerprint,
		PreviewMatched:     matched,
	}, nil
}

// prepare checks the preconditions shared by preview and export and loads the data.
// The report type is checked before any invoice is read.
func (s *ReportService) prepare(ctx context.Context, ownerID uuid.UUID, req models.FilingRequest) (reportKind, *filingData, error) {
	taxpayer, err := s.taxpayers.GetByOwner(ctx, ownerID)
	if err != nil {
		return reportKind{}, nil, err
	}
	if taxpayer == nil {
		return reportKind{}, nil, apperrors.New("GetByOwner", apperrors.ErrTaxpayerNotFound, ownerID.String())
	}
	if !taxpayer.IsVatPayer {
		return reportKind{}, nil, apperrors.New("prepare", apperrors.ErrNotVatPayer, "")
	}

	kind, ok := reportKinds[req.ReportType]
	if !ok {
		if req.ReportType == models.ReportTypeSummaryStatement {
			return reportKind{}, nil, apperrors.New("prepare", apperrors.ErrUnsupportedReportType, string(req.ReportType))
		}
		return reportKind{}, nil, apperrors.New("prepare", apperrors.ErrInvalidReportType, string(req.ReportType))
	}

	period, err := ResolvePeriod(req)
	if err != nil {
		return reportKind{}, nil, err
	}

	invoices, err := s.invoices.FindForFiling(ctx, ownerID, period.Start, period.EndExclusive)
	if err != nil {
		return reportKind{}, nil, err
	}

	figures, err := AggregateFigures(invoices)
	if err != nil {
		return reportKind{}, nil, err
	}

	fingerprint, err := DatasetFingerprint(invoices)
	if err != nil {
		return reportKind{}, nil, err
	}

	data := &filingData{
		taxpayer:    taxpayer,
		period:      period,
		invoices:    invoices,
		figures:     figures,
		fingerprint: fingerprint,
	}
	if req.ReportType == models.ReportTypeControlStatement {
		data.entries = DomesticEntries(invoices)
	}
	return kind, data, nil
}

func (s *ReportService) previewMatch(ctx context.Context, ownerID uuid.UUID, req models.FilingRequest, fingerprint string) models.PreviewMatch {
	if s.snapshots == nil {
		return models.PreviewMatchUnknown
	}

	stored, err := s.snapshots.Get(ctx, ownerID, req)
	if err != nil {
		s.logger.WithError(err).WithField("owner_id", ownerID).Warn("Failed to read preview snapshot")
		return models.PreviewMatchUnknown
	}
	switch stored {
	case "":
		return models.PreviewMatchUnknown
	case fingerprint:
		return models.PreviewMatchYes
	default:
		return models.PreviewMatchNo
	}
}

func (s *ReportService) publish(ctx context.Context, event *models.FilingEvent) {
	if s.publisher == nil {
		return
	}
	event.OccurredAt = time.Now().UTC()
	if err := s.publisher.PublishFilingEvent(ctx, event); err != nil {
		s.logger.WithError(err).WithField("event_type", event.Type).Warn("Failed to publish filing event")
	}
}

// fail logs err by kind and returns it unchanged. Integrity failures are builder defects
// and are logged at error level so they can be alerted on apart from user errors.
func (s *ReportService) fail(op string, ownerID uuid.UUID, req models.FilingRequest, err error) error {
	kind := apperrors.KindOf(err)
	entry := s.logger.WithFields(logrus.Fields{
		"op":          op,
		"owner_id":    ownerID,
		"report_type": req.ReportType,
		"period_type": req.PeriodType,
		"year":        req.Year,
		"value":       req.Value,
		"error_kind":  kind,
	}).WithError(err)

	if record := apperrors.RecordOf(err); record != "" {
		entry = entry.WithField("record", record)
	}

	switch kind {
	case apperrors.KindIntegrity:
		entry.Error("Generated filing document failed validation")
	case apperrors.KindInternal:
		entry.Error("Filing failed")
	default:
		entry.Warn("Filing rejected")
	}
	return err
}
