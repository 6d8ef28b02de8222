package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReportType represents the kind of filing document
type ReportType string

const (
	ReportTypeVatReturn        ReportType = "VAT_RETURN"        // DPHDP3
	ReportTypeControlStatement ReportType = "CONTROL_STATEMENT" // DPHKH1
	ReportTypeSummaryStatement ReportType = "SUMMARY_STATEMENT" // DPHSHV, not produced
)

// ParseReportType accepts "VAT_RETURN", "vat-return", "vat_return" and the like.
func ParseReportType(s string) (ReportType, bool) {
	normalized := ReportType(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	switch normalized {
	case ReportTypeVatReturn, ReportTypeControlStatement, ReportTypeSummaryStatement:
		return normalized, true
	}
	return "", false
}

// PeriodType represents the length of a filing period
type PeriodType string

const (
	PeriodTypeMonth   PeriodType = "MONTH"
	PeriodTypeQuarter PeriodType = "QUARTER"
)

// ParsePeriodType accepts "MONTH"/"month" and "QUARTER"/"quarter".
func ParsePeriodType(s string) (PeriodType, bool) {
	normalized := PeriodType(strings.ToUpper(strings.TrimSpace(s)))
	switch normalized {
	case PeriodTypeMonth, PeriodTypeQuarter:
		return normalized, true
	}
	return "", false
}

// FilingRequest identifies which document to produce and for which period.
// Value is 1-12 for months and 1-4 for quarters.
type FilingRequest struct {
	ReportType ReportType `json:"reportType"`
	PeriodType PeriodType `json:"periodType"`
	Year       int        `json:"year"`
	Value      int        `json:"value"`
}

// PeriodRange is a half-open [Start, EndExclusive) range of UTC midnights.
type PeriodRange struct {
	Start        time.Time `json:"start"`
	EndExclusive time.Time `json:"endExclusive"`
}

// Contains reports whether t falls inside the range.
func (r PeriodRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.EndExclusive)
}

// VatFigures are the rate-bucketed sums of a filing period, unrounded.
// Reverse-charge invoices only feed the Reverse* buckets.
type VatFigures struct {
	Net0  decimal.Decimal `json:"net0"`
	Vat0  decimal.Decimal `json:"vat0"`
	Net12 decimal.Decimal `json:"net12"`
	Vat12 decimal.Decimal `json:"vat12"`
	Net21 decimal.Decimal `json:"net21"`
	Vat21 decimal.Decimal `json:"vat21"`

	ReverseNet21 decimal.Decimal `json:"reverseNet21"`
	ReverseNet12 decimal.Decimal `json:"reverseNet12"`
}

// StandardVat is the VAT due across the standard buckets.
func (f VatFigures) StandardVat() decimal.Decimal {
	return f.Vat0.Add(f.Vat12).Add(f.Vat21)
}

// ReverseNet is the reverse-charge net across both brackets.
func (f VatFigures) ReverseNet() decimal.Decimal {
	return f.ReverseNet21.Add(f.ReverseNet12)
}

// OfficeRecord is one row of the regulator's office codebook.
type OfficeRecord struct {
	LocalCode    string `json:"localCode"`
	RegionalCode string `json:"regionalCode"`
	Name         string `json:"name"`
	Superseded   bool   `json:"superseded"`
}

// OfficeAssignment is a taxpayer's resolved local and regional office.
type OfficeAssignment struct {
	LocalCode    string `json:"localCode"`
	RegionalCode string `json:"regionalCode"`
}

// ControlStatementEntry is one domestic invoice row of the control statement.
// Amounts are unrounded sums of the invoice's line items.
type ControlStatementEntry struct {
	InvoiceID         uuid.UUID         `json:"invoiceId"`
	Reference         string            `json:"reference"`
	Classification    TaxClassification `json:"classification"`
	SupplyDate        time.Time         `json:"supplyDate"`
	CounterpartyTaxID string            `json:"counterpartyTaxId"`
	ReverseChargeCode string            `json:"reverseChargeCode,omitempty"`

	Net21 decimal.Decimal `json:"net21"`
	Vat21 decimal.Decimal `json:"vat21"`
	Net12 decimal.Decimal `json:"net12"`
	Vat12 decimal.Decimal `json:"vat12"`
}

// IsReverseCharge reports whether the entry belongs to the reverse-charge section.
func (e ControlStatementEntry) IsReverseCharge() bool {
	return e.Classification == ClassificationDomesticReverseCharge
}

// FilingEventType is the NATS subject of a filing event
type FilingEventType string

const (
	FilingEventPreviewed FilingEventType = "filing.previewed"
	FilingEventExported  FilingEventType = "filing.exported"
)

// FilingEvent announces a preview or export to other services.
type FilingEvent struct {
	Type               FilingEventType `json:"type"`
	OwnerID            uuid.UUID       `json:"ownerId"`
	ReportType         ReportType      `json:"reportType"`
	PeriodType         PeriodType      `json:"periodType"`
	Year               int             `json:"year"`
	Value              int             `json:"value"`
	InvoiceCount       int             `json:"invoiceCount"`
	DatasetFingerprint string          `json:"datasetFingerprint"`
	FileName           string          `json:"fileName,omitempty"`
	PreviewMatched     PreviewMatch    `json:"previewMatched,omitempty"`
	OccurredAt         time.Time       `json:"occurredAt"`
}
