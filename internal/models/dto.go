package models

import "github.com/google/uuid"

// FilingRequestInput is the HTTP body for preview and export
type FilingRequestInput struct {
	ReportType string `json:"reportType" binding:"required"`
	PeriodType string `json:"periodType" binding:"required"`
	Year       int    `json:"year" binding:"required"`
	Value      int    `json:"value" binding:"required"`
}

// FilingPreview summarises what an export for the same request would contain
type FilingPreview struct {
	ReportType         ReportType `json:"reportType"`
	PeriodType         PeriodType `json:"periodType"`
	Year               int        `json:"year"`
	Value              int        `json:"value"`
	PeriodStart        string     `json:"periodStart"`        // yyyy-mm-dd
	PeriodEnd          string     `json:"periodEndExclusive"` // yyyy-mm-dd
	SchemaVersion      string     `json:"schemaVersion"`
	InvoiceCount       int        `json:"invoiceCount"`
	DatasetFingerprint string     `json:"datasetFingerprint"`

	VatReturn        *VatReturnSummary        `json:"vatReturn,omitempty"`
	ControlStatement *ControlStatementSummary `json:"controlStatement,omitempty"`
}

// RateBucketTotals are the period totals, each rounded to 2 decimal places
type RateBucketTotals struct {
	Net21        string `json:"net21"`
	Vat21        string `json:"vat21"`
	Net12        string `json:"net12"`
	Vat12        string `json:"vat12"`
	Net0         string `json:"net0"`
	ReverseNet21 string `json:"reverseNet21"`
	ReverseNet12 string `json:"reverseNet12"`
	TotalVat     string `json:"totalVat"`
}

// VatReturnSummary is the VAT return part of a preview
type VatReturnSummary struct {
	Totals RateBucketTotals `json:"totals"`
}

// ControlStatementRow is a formatted control statement entry
type ControlStatementRow struct {
	InvoiceID         uuid.UUID         `json:"invoiceId"`
	Reference         string            `json:"reference"`
	Classification    TaxClassification `json:"classification"`
	SupplyDate        string            `json:"supplyDate"` // yyyy-mm-dd
	CounterpartyTaxID string            `json:"counterpartyTaxId"`
	Net21             string            `json:"net21"`
	Vat21             string            `json:"vat21"`
	Net12             string            `json:"net12"`
	Vat12             string            `json:"vat12"`
}

// ControlStatementSummary is the control statement part of a preview
type ControlStatementSummary struct {
	Entries []ControlStatementRow `json:"entries"`
	Totals  RateBucketTotals      `json:"totals"`
}

// PreviewMatch tells whether an export used the same dataset as the last preview
type PreviewMatch string

const (
	PreviewMatchYes     PreviewMatch = "true"
	PreviewMatchNo      PreviewMatch = "false"
	PreviewMatchUnknown PreviewMatch = "unknown"
)

// FilingExport is a generated filing document. It is never persisted here.
type FilingExport struct {
	FileName           string       `json:"fileName"`
	Document           string       `json:"document"`
	DatasetFingerprint string       `json:"datasetFingerprint"`
	PreviewMatched     PreviewMatch `json:"previewMatched"`
}
