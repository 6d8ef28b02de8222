package services

import (
	"strings"

	"github.com/shopspring/decimal"

	"filing-service/internal/apperrors"
	"filing-service/internal/filing"
	"filing-service/internal/models"
)

// Rates tracked by the filing buckets; line items at any other rate are ignored.
const (
	rateZero     = 0
	rateReduced  = 12
	rateStandard = 21
)

// invoiceRef names an invoice in errors and control statement rows: its number, or the
// first eight characters of its id when it has none.
func invoiceRef(inv *models.Invoice) string {
	if ref := strings.TrimSpace(inv.InvoiceNumber); ref != "" {
		return ref
	}
	return inv.ID.String()[:8]
}

// CheckClassifications fails on the first invoice whose tax classification is missing
// or not one of the known values.
func CheckClassifications(invoices []models.Invoice) error {
	for i := range invoices {
		c := invoices[i].Classification
		switch {
		case c == nil || *c == "":
			return apperrors.ForRecord("CheckClassifications", apperrors.ErrMissingClassification, invoiceRef(&invoices[i]))
		case !c.IsKnown():
			return apperrors.ForRecord("CheckClassifications", apperrors.ErrUnknownClassification, invoiceRef(&invoices[i]))
		}
	}
	return nil
}

// AggregateFigures sums line items into rate buckets. Invoices must already be filtered
// to the period and fileable statuses. All arithmetic is exact; no rounding happens here.
func AggregateFigures(invoices []models.Invoice) (models.VatFigures, error) {
	if err := CheckClassifications(invoices); err != nil {
		return models.VatFigures{}, err
	}

	var f models.VatFigures
	for i := range invoices {
		reverse := *invoices[i].Classification == models.ClassificationDomesticReverseCharge
		for _, item := range invoices[i].Items {
			addItem(&f, reverse, item)
		}
	}
	return f, nil
}

func addItem(f *models.VatFigures, reverse bool, item models.InvoiceLineItem) {
	if reverse {
		switch item.VatRate {
		case rateStandard:
			f.ReverseNet21 = f.ReverseNet21.Add(item.Net)
		case rateReduced:
			f.ReverseNet12 = f.ReverseNet12.Add(item.Net)
		}
		return
	}

	switch item.VatRate {
	case rateStandard:
		f.Net21 = f.Net21.Add(item.Net)
		f.Vat21 = f.Vat21.Add(item.Vat)
	case rateReduced:
		f.Net12 = f.Net12.Add(item.Net)
		f.Vat12 = f.Vat12.Add(item.Vat)
	case rateZero:
		f.Net0 = f.Net0.Add(item.Net)
		f.Vat0 = f.Vat0.Add(item.Vat)
	}
}

// DomesticEntries builds one control statement entry per domestic-standard or
// domestic-reverse-charge invoice, in input order. Reverse-charge entries carry no VAT.
func DomesticEntries(invoices []models.Invoice) []models.ControlStatementEntry {
	entries := make([]models.ControlStatementEntry, 0)
	for i := range invoices {
		inv := &invoices[i]
		classification := inv.ClassificationOrEmpty()
		if !classification.IsDomestic() {
			continue
		}

		entry := models.ControlStatementEntry{
			InvoiceID:         inv.ID,
			Reference:         invoiceRef(inv),
			Classification:    classification,
			SupplyDate:        inv.TaxableSupplyDate,
			CounterpartyTaxID: counterpartyTaxID(inv),
			Net21:             decimal.Zero,
			Vat21:             decimal.Zero,
			Net12:             decimal.Zero,
			Vat12:             decimal.Zero,
		}
		if entry.IsReverseCharge() {
			entry.ReverseChargeCode = strings.TrimSpace(inv.ReverseChargeCode)
		}

		for _, item := range inv.Items {
			switch item.VatRate {
			case rateStandard:
				entry.Net21 = entry.Net21.Add(item.Net)
				if !entry.IsReverseCharge() {
					entry.Vat21 = entry.Vat21.Add(item.Vat)
				}
			case rateReduced:
				entry.Net12 = entry.Net12.Add(item.Net)
				if !entry.IsReverseCharge() {
					entry.Vat12 = entry.Vat12.Add(item.Vat)
				}
			}
		}

		entries = append(entries, entry)
	}
	return entries
}

// counterpartyTaxID prefers the customer's DIČ and falls back to the IČO.
func counterpartyTaxID(inv *models.Invoice) string {
	if id := filing.NormalizeTaxID(inv.CustomerTaxID); id != "" {
		return id
	}
	return filing.NormalizeTaxID(inv.CustomerCompanyID)
}
