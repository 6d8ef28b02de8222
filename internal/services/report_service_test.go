package services

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"filing-service/internal/apperrors"
	"filing-service/internal/filing"
	"filing-service/internal/models"
	"filing-service/internal/money"
)

// Mock stores

type MockTaxpayerStore struct {
	mock.Mock
}

func (m *MockTaxpayerStore) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*models.TaxpayerProfile, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TaxpayerProfile), args.Error(1)
}

type MockInvoiceStore struct {
	mock.Mock
}

func (m *MockInvoiceStore) FindForFiling(ctx context.Context, ownerID uuid.UUID, start, endExclusive time.Time) ([]models.Invoice, error) {
	args := m.Called(ctx, ownerID, start, endExclusive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Invoice), args.Error(1)
}

type MockOfficeResolver struct {
	mock.Mock
}

func (m *MockOfficeResolver) Resolve(ctx context.Context, localCode string) (models.OfficeAssignment, error) {
	args := m.Called(ctx, localCode)
	return args.Get(0).(models.OfficeAssignment), args.Error(1)
}

type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) Save(ctx context.Context, ownerID uuid.UUID, req models.FilingRequest, fingerprint string) error {
	return m.Called(ctx, ownerID, req, fingerprint).Error(0)
}

func (m *MockSnapshotStore) Get(ctx context.Context, ownerID uuid.UUID, req models.FilingRequest) (string, error) {
	args := m.Called(ctx, ownerID, req)
	return args.String(0), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishFilingEvent(ctx context.Context, event *models.FilingEvent) error {
	return m.Called(ctx, event).Error(0)
}

var (
	_ TaxpayerStore  = (*MockTaxpayerStore)(nil)
	_ InvoiceStore   = (*MockInvoiceStore)(nil)
	_ OfficeResolver = (*MockOfficeResolver)(nil)
	_ SnapshotStore  = (*MockSnapshotStore)(nil)
	_ EventPublisher = (*MockEventPublisher)(nil)
)

type serviceFixture struct {
	service   *ReportService
	taxpayers *MockTaxpayerStore
	invoices  *MockInvoiceStore
	offices   *MockOfficeResolver
	logs      *logtest.Hook
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	logger, hook := logtest.NewNullLogger()
	logger.SetOutput(io.Discard)

	f := &serviceFixture{
		taxpayers: new(MockTaxpayerStore),
		invoices:  new(MockInvoiceStore),
		offices:   new(MockOfficeResolver),
		logs:      hook,
	}
	builder := filing.NewBuilder(filing.Config{
		SoftwareName:    "filing-service",
		SoftwareVersion: "test",
		Now:             func() time.Time { return time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC) },
	})
	f.service = NewReportService(f.taxpayers, f.invoices, f.offices, builder, money.HalfUp, logger)
	return f
}

var testOwner = uuid.MustParse("11111111-2222-3333-4444-555555555555")

func vatPayer() *models.TaxpayerProfile {
	return &models.TaxpayerProfile{
		OwnerID:         testOwner,
		IsVatPayer:      true,
		FirstName:       "Jan",
		LastName:        "Novák",
		Street:          "Hlavní 5",
		City:            "Brno",
		PostalCode:      "602 00",
		Country:         "ČESKÁ REPUBLIKA",
		TaxID:           "CZ8001011234",
		LocalOfficeCode: "2705",
	}
}

func monthRequest(rt models.ReportType) models.FilingRequest {
	return models.FilingRequest{ReportType: rt, PeriodType: models.PeriodTypeMonth, Year: 2024, Value: 3}
}

var (
	marchStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	aprilStart = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
)

func TestPreview_NotVatPayer(t *testing.T) {
	f := newServiceFixture(t)
	profile := vatPayer()
	profile.IsVatPayer = false
	f.taxpayers.On("GetByOwner", mock.Anything, testOwner).Return(profile, nil)

	preview, err := f.service.Preview(context.Background(), testOwner, monthRequest(models.ReportTypeVatReturn))

	require.Error(t, err)
	assert.Nil(t, preview)
	assert.ErrorIs(t, err, apperrors.ErrNotVatPayer)
	f.invoices.AssertNotCalled(t, "FindForFiling", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	last := f.logs.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, logrus.WarnLevel, last.Level)
	assert.Equal(t, apperrors.KindPrecondition, last.Data["error_kind"])
}

func TestPreview_TaxpayerNotFound(t *testing.T) {
	f := newServiceFixture(t)
	f.taxpayers.On("GetByOwner", mock.Anything, testOwner).Return(nil, nil)

	_, err := f.service.Preview(context.Background(), testOwner, monthRequest(models.ReportTypeVatReturn))
	assert.ErrorIs(t, err, apperrors.ErrTaxpayerNotFound)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestPreview_UnsupportedReportTypeBeforeAnyFetch(t *testing.T) {
	f := newServiceFixture(t)
	f.taxpayers.On("GetByOwner", mock.Anything, testOwner).Return(vatPayer(), nil)

	for _, call := range []func() error{
		func() error {
			_, err := f.service.Preview(context.Background(), testOwner, monthRequest(models.ReportTypeSummaryStatement))
			return err
		},
		func() error {
			_, err := f.service.Export(context.Background(), testOwner, monthRequest(models.ReportTypeSummaryStatement))
			return err
		},
	} {
		err := call()
		assert.ErrorIs(t, err, apperrors.ErrUnsupportedReportType)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	}

	f.invoices.AssertNotCalled(t, "FindForFiling", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.offices.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestPreview_InvalidPeriod(t *testing.T) {
	f := newServiceFixture(t)
	f.taxpayers.On("GetByOwner", mock.Anything, testOwner).Return(vatPayer(), nil)

	req := monthRequest(models.ReportTypeVatReturn)
	req.Value = 13

	_, err := f.service.Preview(context.Background(), testOwner, req)
	assert.ErrorIs(t, err, apperrors.ErrInvalidPeriod)
	f.invoices.AssertNotCalled(t, "FindForFiling", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPreview_VatReturn(t *testing.T) {
	f := newServiceFixture(t)
	f.taxpayers.On("GetByOwner", mock.Anything, testOwner).Return(vatPayer(), nil)
	f.invoices.On("FindForFiling", mock.Anything, testOwner, marchStart, aprilStart).Return([]models.Invoice{
		invoice("2024-001", models.ClassificationDomesticStandard, item(1, 21, "100.00", "21.00")),
		invoice("2024-002", models.ClassificationDomesticReverseCharge, item(1, 12, "40.555", "4.87")),
	}, nil)

	preview, err := f.service.Preview(context.Background(), testOwner, monthRequest(models.ReportTypeVatReturn))
	require.NoError(t, err)

	assert.Equal(t, filing.VatReturnSchemaVersion, preview.SchemaVersion)
	assert.Equal(t, 2, preview.InvoiceCount)
	assert.Equal(t, "2024-03-01", preview.PeriodStart)
	assert.Equal(t, "2024-04-01", preview.PeriodEnd)
	assert.Len(t, preview.DatasetFingerprint, 64)
	assert.Nil(t, preview.ControlStatement)

	require.NotNil(t, preview.VatReturn)
	totals := preview.VatReturn.Totals
	assert.Equal(t, "100.00", totals.Net21)
	assert.Equal(t, "21.00", totals.Vat21)
	assert.Equal(t, "0.00", totals.Net12)
	assert.Equal(t, "40.56", totals.ReverseNet12)
	assert.Equal(t, "21.00", totals.TotalVat)

	f.invoices.AssertExpectations(t)
	f.offices.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestPreview_ControlStatementListsRowsWithoutCounterparty(t *testing.T) {
	f := newServiceFixture(t)
	noCounterparty := invoice("2024-003", models.ClassificationDomesticStandard, item(1, 21, "10", "2.10"))
	noCounterparty.CustomerTaxID = ""

	f.taxpayers.On("GetByOwner", mock.Anything, testOwner).Return(vatPayer(), nil)
	f.invoices.On("FindForFiling", mock.Anything, testOwner, marchStart, aprilStart).Return([]models.Invoice{
		invoice("2024-001", models.ClassificationDomesticStandard, item(1, 21, "100", "21")),
		invoice("2024-002", models.ClassificationEUService, item(1, 21, "50", "0")),
		noCounterparty,
	}, nil)

	preview, err := f.service.Preview(context.Background(), testOwner, monthRequest(models.ReportTypeControlStatement))
	require.NoError(t, err)

	require.NotNil(t, preview.ControlStatement)
	assert.Equal(t, filing.ControlStatementSchemaVersion, preview.SchemaVersion)
	rows := preview.ControlStatement.Entries
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-001", rows[0].Reference)
	assert.Equal(t, "12345678", rows[0].CounterpartyTaxID)
	assert.Equal(t, "100.00", rows[0].Net21)
	assert.Equal(t, "2024-03-10", rows[0].SupplyDate)
	assert.Empty(t, rows[1].CounterpartyTaxID)
}

func TestPreview_MissingClassification(t *testing.T) {
	f := newServiceFixture(t)
	unclassified := invoice("2024-009", models.ClassificationDomesticStandard, item(1, 21, "1", "0.21"))
	unclassified.Classification = nil

	f.taxpayers.On("GetByOwner", mock.Anything, testOwner).Return(vatPayer(), nil)
	f.invoices.On("FindForFiling", mock.Anything, testOwner, marchStart, aprilStart).Return([]models.Invoice{unclassified}, nil)

	_, err := f.service.Preview(context.Background(), testOwner, monthRequest(models.ReportTypeVatReturn))
	assert.ErrorIs(t, err, apperrors.ErrMissingClassification)
	assert.Equal(t, "2024-009", f.logs.LastEntry().Data["record"])
}

func TestPreview_StoreFailureIsInternal(t *testing.T) {
	f := newServiceFixture(t)
	f.taxpayers.On("GetByOwner", mock.Anything, testOwner).Return(vatPayer(), nil)
	f.invoices.On("FindForFiling", mock.Anything, testOwner, marchStart, aprilStart).Return(nil, errors.New("connection refused"))

	_, err := f.service.Preview(context.Background(), testOwner, monthRequest(models.ReportTypeVatReturn))
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
	assert.Equal(t, logrus.ErrorLevel, f.logs.LastEntry().Level)
}

func TestExport_VatReturn(t *testing.T) {
	f := newServiceFixture(t)
	f.taxpayers.On("GetByOwner", mock.Anything, testOwner).Return(vatPayer(), nil)
	f.invoices.On("FindForFiling", mock.Anything, testOwner, marchStart, aprilStart).Return([]models.Invoice{
		invoice("2024-001", models.ClassificationDomesticStandard, item(1, 21, "100.00", "21.00")),
	}, nil)
	f.offices.On("Resolve", mock.Anything, "2705").Return(models.OfficeAssignment{LocalCode: "2705", RegionalCode: "458"}, nil)

	export, err := f.service.Export(context.Background(), testOwner, monthRequest(models.ReportTypeVatReturn))
	require.NoError(t, err)

	assert.Equal(t, "8001011234_DPH_202403M.xml", export.FileName)
	assert.Equal(t, models.PreviewMatchUnknown, export.PreviewMatched)
	assert.True(t, strings.HasPrefix(export.Document, xml.Header))
	assert.Contains(t, export.Document, `obrat23="100"`)
	assert.Contains(t, export.Document, `dan23="21"`)
	assert.Contains(t, export.Document, `dan_zocelk="21"`)
	assert.Contains(t, export.Document, `c_ufo="458"`)
	assert.Contains(t, export.Document, `c_pracufo="2705"`)
	assert.Contains(t, export.Document, `d_poddp="10.04.2024"`)
}

func TestExport_OfficeResolutionFails(t *testing.T) {
	f := newServiceFixture(t)
	f.taxpayers.On("GetByOwner", mock.Anything, testOwner).Return(vatPayer(), nil)
	f.invoices.On("FindForFiling", mock.Anything, testOwner, marchStart, aprilStart).Return([]models.Invoice{}, nil)
	f.offices.On("Resolve", mock.Anything, "2705").Return(models.OfficeAssignment{},
		apperrors.ForRecord("Resolve", apperrors.ErrRegionalOfficeUnresolved, "2705"))

	export, err := f.service.Export(context.Background(), testOwner, monthRequest(models.ReportTypeVatReturn))
	assert.Nil(t, export)
	assert.ErrorIs(t, err, apperrors.ErrRegionalOfficeUnresolved)
}

func TestExport_TaxpayerWithoutTaxID(t *testing.T) {
	f := newServiceFixture(t)
	noTaxID := vatPayer()
	noTaxID.TaxID = " CZ "

	f.taxpayers.On("GetByOwner", mock.Anything, testOwner).Return(noTaxID, nil)
	f.invoices.On("FindForFiling", mock.Anything, testOwner, marchStart, aprilStart).Return([]models.Invoice{
		invoice("2024-001", models.ClassificationDomesticStandard, item(1, 21, "100.00", "21.00")),
	}, nil)

	preview, err := f.service.Preview(context.Background(), testOwner, monthRequest(models.ReportTypeVatReturn))
	require.NoError(t, err)
	assert.NotNil(t, preview)

	export, err := f.service.Export(context.Background(), testOwner, monthRequest(models.ReportTypeVatReturn))
	assert.Nil(t, export)
	assert.ErrorIs(t, err, apperrors.ErrMissingTaxpayerTaxID)
	assert.Equal(t, apperrors.KindPrecondition, apperrors.KindOf(err))
	f.offices.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestExport_ControlStatementMissingCounterparty(t *testing.T) {
	f := newServiceFixture(t)
	bad := invoice("2024-007", models.ClassificationDomesticReverseCharge, item(1, 21, "10", "0"))
	bad.CustomerTaxID = ""
	bad.CustomerCompanyID = ""

	f.taxpayers.On("GetByOwner", mock.Anything, testOwner).Return(vatPayer(), nil)
	f.invoices.On("FindForFiling", mock.Anything, testOwner, marchStart, aprilStart).Return([]models.Invoice{
		invoice("2024-006", models.ClassificationDomesticStandard, item(1, 21, "100", "21")),
		bad,
	}, nil)
	f.offices.On("Resolve", mock.Anything, "2705").Return(models.OfficeAssignment{LocalCode: "2705", RegionalCode: "458"}, nil)

	export, err := f.service.Export(context.Background(), testOwner, monthRequest(models.ReportTypeControlStatement))
	require.Error(t, err)
	assert.Nil(t, export)
	assert.ErrorIs(t, err, apperrors.ErrMissingCounterpartyTaxID)
	assert.Equal(t, "2024-007", apperrors.RecordOf(err))
}

func TestPreviewAndExport_SameFingerprint(t *testing.T) {
	f := newServiceFixture(t)
	snapshots := new(MockSnapshotStore)
	publisher := new(MockEventPublisher)
	f.service.WithSnapshots(snapshots).WithPublisher(publisher)

	invoices := []models.Invoice{
		invoice("2024-001", models.ClassificationDomesticStandard, item(2, 12, "50", "6"), item(1, 21, "100", "21")),
	}
	req := monthRequest(models.ReportTypeControlStatement)

	f.taxpayers.On("GetByOwner", mock.Anything, testOwner).Return(vatPayer(), nil)
	f.invoices.On("FindForFiling", mock.Anything, testOwner, marchStart, aprilStart).Return(invoices, nil)
	f.offices.On("Resolve", mock.Anything, "2705").Return(models.OfficeAssignment{LocalCode: "2705", RegionalCode: "458"}, nil)

	var saved string
	snapshots.On("Save", mock.Anything, testOwner, req, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { saved = args.String(3) }).
		Return(nil)
	publisher.On("PublishFilingEvent", mock.Anything, mock.MatchedBy(func(e *models.FilingEvent) bool {
		return e.Type == models.FilingEventPreviewed
	})).Return(nil)
	publisher.On("PublishFilingEvent", mock.Anything, mock.MatchedBy(func(e *models.FilingEvent) bool {
		return e.Type == models.FilingEventExported && e.FileName == "8001011234_DPHKH_202403M.xml"
	})).Return(errors.New("nats: connection closed"))

	preview, err := f.service.Preview(context.Background(), testOwner, req)
	require.NoError(t, err)
	assert.Equal(t, preview.DatasetFingerprint, saved)

	snapshots.On("Get", mock.Anything, testOwner, req).Return(saved, nil)

	export, err := f.service.Export(context.Background(), testOwner, req)
	require.NoError(t, err, "publishing failures never fail the export")
	assert.Equal(t, preview.DatasetFingerprint, export.DatasetFingerprint)
	assert.Equal(t, models.PreviewMatchYes, export.PreviewMatched)

	snapshots.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestExport_PreviewMismatch(t *testing.T) {
	f := newServiceFixture(t)
	snapshots := new(MockSnapshotStore)
	f.service.WithSnapshots(snapshots)

	req := monthRequest(models.ReportTypeVatReturn)
	f.taxpayers.On("GetByOwner", mock.Anything, testOwner).Return(vatPayer(), nil)
	f.invoices.On("FindForFiling", mock.Anything, testOwner, marchStart, aprilStart).Return([]models.Invoice{
		invoice("2024-001", models.ClassificationDomesticStandard, item(1, 21, "100", "21")),
	}, nil)
	f.offices.On("Resolve", mock.Anything, "2705").Return(models.OfficeAssignment{LocalCode: "2705", RegionalCode: "458"}, nil)
	snapshots.On("Get", mock.Anything, testOwner, req).Return("stale", nil)

	export, err := f.service.Export(context.Background(), testOwner, req)
	require.NoError(t, err)
	assert.Equal(t, models.PreviewMatchNo, export.PreviewMatched)
}
