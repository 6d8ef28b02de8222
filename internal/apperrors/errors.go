package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for callers deciding how to surface it.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindPrecondition Kind = "precondition"
	KindIntegrity    Kind = "integrity"
	KindInternal     Kind = "internal"
)

// Filing errors
var (
	// ErrInvalidPeriod is returned when the period value is outside 1-12 (month) or 1-4 (quarter),
	// or when the period type or year is not recognised.
	ErrInvalidPeriod = errors.New("invalid filing period")

	// ErrInvalidReportType is returned for report type strings that name no known filing.
	ErrInvalidReportType = errors.New("invalid report type")

	// ErrUnsupportedReportType is returned for known report types that cannot be produced.
	ErrUnsupportedReportType = errors.New("unsupported report type")

	// ErrTaxpayerNotFound is returned when the owner has no taxpayer profile.
	ErrTaxpayerNotFound = errors.New("taxpayer profile not found")

	// ErrNotVatPayer is returned when the taxpayer is not registered for VAT.
	ErrNotVatPayer = errors.New("taxpayer is not a VAT payer")

	// ErrMissingClassification is returned when an invoice entering a filing has no tax classification.
	ErrMissingClassification = errors.New("invoice has no tax classification")
	ErrUnknownClassification = errors.New("invoice has an unknown tax classification")

	// ErrMissingTaxpayerTaxID is returned on export when the taxpayer profile has no DIČ.
	ErrMissingTaxpayerTaxID = errors.New("taxpayer has no tax id")

	// ErrMissingCounterpartyTaxID is returned when a control-statement row has neither DIČ nor IČO.
	ErrMissingCounterpartyTaxID = errors.New("invoice has no counterparty tax id")

	ErrOfficeNotAssigned        = errors.New("taxpayer has no local tax office assigned")
	ErrOfficeUnknown            = errors.New("local tax office code not found in codebook")
	ErrRegionalOfficeUnresolved = errors.New("regional tax office could not be resolved")

	// ErrCodebookUnavailable is returned when the office codebook source cannot be loaded.
	ErrCodebookUnavailable = errors.New("office codebook unavailable")

	// ErrMalformedDocument means the generated XML failed the well-formedness check.
	ErrMalformedDocument = errors.New("generated filing document is malformed")
)

var kinds = map[error]Kind{
	ErrInvalidPeriod:            KindValidation,
	ErrInvalidReportType:        KindValidation,
	ErrUnsupportedReportType:    KindValidation,
	ErrTaxpayerNotFound:         KindNotFound,
	ErrNotVatPayer:              KindPrecondition,
	ErrMissingClassification:    KindPrecondition,
	ErrUnknownClassification:    KindPrecondition,
	ErrMissingTaxpayerTaxID:     KindPrecondition,
	ErrMissingCounterpartyTaxID: KindPrecondition,
	ErrOfficeNotAssigned:        KindPrecondition,
	ErrOfficeUnknown:            KindPrecondition,
	ErrRegionalOfficeUnresolved: KindPrecondition,
	ErrCodebookUnavailable:      KindInternal,
	ErrMalformedDocument:        KindIntegrity,
}

// Error wraps a filing sentinel with the operation and offending record.
type Error struct {
	// Op is the operation that failed (e.g. "ResolvePeriod", "BuildControlStatement").
	Op string

	// Err is the underlying sentinel or cause.
	Err error

	// Record identifies the offending record, usually an invoice number.
	Record string

	// Details provides additional context.
	Details string
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Err)
	if e.Record != "" {
		msg += fmt.Sprintf(" (record %s)", e.Record)
	}
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return msg
}

// Unwrap returns the underlying error for error unwrapping.
func (e *Error) Unwrap() error {
	return e.Err
}

// Kind reports the classification of the wrapped error.
func (e *Error) Kind() Kind {
	return KindOf(e.Err)
}

// New creates an Error for op wrapping err.
func New(op string, err error, details string) *Error {
	return &Error{Op: op, Err: err, Details: details}
}

// ForRecord creates an Error naming the offending record.
func ForRecord(op string, err error, record string) *Error {
	return &Error{Op: op, Err: err, Record: record}
}

// KindOf classifies err by the first known sentinel in its chain.
// Errors that carry no filing sentinel are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for sentinel, kind := range kinds {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindInternal
}

// RecordOf returns the offending record named anywhere in err's chain.
func RecordOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Record
	}
	return ""
}
