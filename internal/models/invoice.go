package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusIssued    InvoiceStatus = "ISSUED"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// FileableStatuses are the statuses an invoice must have to enter a filing.
var FileableStatuses = []InvoiceStatus{InvoiceStatusIssued, InvoiceStatusPaid}

// TaxClassification is the VAT regime of a whole invoice
type TaxClassification string

const (
	ClassificationDomesticStandard      TaxClassification = "DOMESTIC_STANDARD"
	ClassificationDomesticReverseCharge TaxClassification = "DOMESTIC_REVERSE_CHARGE"
	ClassificationEUService             TaxClassification = "EU_SERVICE"
	ClassificationEUGoods               TaxClassification = "EU_GOODS"
	ClassificationExportThirdCountry    TaxClassification = "EXPORT_THIRD_COUNTRY"
	ClassificationExemptWithoutCredit   TaxClassification = "EXEMPT_WITHOUT_CREDIT"
)

// IsKnown reports whether c is one of the classifications above.
func (c TaxClassification) IsKnown() bool {
	switch c {
	case ClassificationDomesticStandard, ClassificationDomesticReverseCharge,
		ClassificationEUService, ClassificationEUGoods,
		ClassificationExportThirdCountry, ClassificationExemptWithoutCredit:
		return true
	}
	return false
}

// IsDomestic reports whether invoices of this classification appear in the control statement.
func (c TaxClassification) IsDomestic() bool {
	return c == ClassificationDomesticStandard || c == ClassificationDomesticReverseCharge
}

// Invoice is an issued sales invoice. It is owned by the invoicing service;
// this service only reads it.
type Invoice struct {
	ID            uuid.UUID     `json:"id" gorm:"type:uuid;primary_key"`
	OwnerID       uuid.UUID     `json:"ownerId" gorm:"type:uuid;not null;index:idx_invoice_filing,priority:1"`
	Status        InvoiceStatus `json:"status" gorm:"type:varchar(20);not null;default:'DRAFT'"`
	InvoiceNumber string        `json:"invoiceNumber" gorm:"type:varchar(50)"`

	// DUZP, the date the taxable supply took place
	TaxableSupplyDate time.Time `json:"taxableSupplyDate" gorm:"type:date;not null;index:idx_invoice_filing,priority:2"`

	// Nil until the invoice is classified; filings refuse unclassified invoices
	Classification *TaxClassification `json:"classification" gorm:"type:varchar(40)"`

	// Subject code for domestic reverse charge (kod_pred_pl), e.g. "4" for construction work
	ReverseChargeCode string `json:"reverseChargeCode" gorm:"type:varchar(10)"`

	CustomerName      string `json:"customerName" gorm:"type:varchar(255)"`
	CustomerTaxID     string `json:"customerTaxId" gorm:"type:varchar(20)"`     // DIČ
	CustomerCompanyID string `json:"customerCompanyId" gorm:"type:varchar(20)"` // IČO

	Currency   string          `json:"currency" gorm:"type:varchar(3);default:'CZK'"`
	TotalNet   decimal.Decimal `json:"totalNet" gorm:"type:decimal(14,2);not null;default:0"`
	TotalVat   decimal.Decimal `json:"totalVat" gorm:"type:decimal(14,2);not null;default:0"`
	TotalGross decimal.Decimal `json:"totalGross" gorm:"type:decimal(14,2);not null;default:0"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Items []InvoiceLineItem `json:"items,omitempty" gorm:"foreignKey:InvoiceID"`
}

// BeforeCreate assigns an id when the caller did not.
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// ClassificationOrEmpty returns the classification or "" when unset.
func (i *Invoice) ClassificationOrEmpty() TaxClassification {
	if i.Classification == nil {
		return ""
	}
	return *i.Classification
}

// InvoiceLineItem is one line of an invoice. Position is 1-based and defines canonical order.
type InvoiceLineItem struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primary_key"`
	InvoiceID   uuid.UUID       `json:"invoiceId" gorm:"type:uuid;not null;index"`
	Position    int             `json:"position" gorm:"not null"`
	Description string          `json:"description" gorm:"type:text"`
	VatRate     int             `json:"vatRate" gorm:"not null;default:21"` // percent: 0, 12 or 21
	Net         decimal.Decimal `json:"net" gorm:"type:decimal(14,2);not null;default:0"`
	Vat         decimal.Decimal `json:"vat" gorm:"type:decimal(14,2);not null;default:0"`
	Gross       decimal.Decimal `json:"gross" gorm:"type:decimal(14,2);not null;default:0"`
}

// BeforeCreate assigns an id when the caller did not.
func (l *InvoiceLineItem) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
