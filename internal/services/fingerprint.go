package services

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"filing-service/internal/models"
)

// fingerprintVersion is mixed into the hash so a projection change never collides with old tokens.
const fingerprintVersion = "v1"

type fingerprintItem struct {
	Position    int    `json:"position"`
	Description string `json:"description"`
	VatRate     int    `json:"vatRate"`
	Net         string `json:"net"`
	Vat         string `json:"vat"`
	Gross       string `json:"gross"`
}

type fingerprintInvoice struct {
	ID                string            `json:"id"`
	UpdatedAt         string            `json:"updatedAt"`
	Status            string            `json:"status"`
	InvoiceNumber     string            `json:"invoiceNumber"`
	TaxableSupplyDate string            `json:"taxableSupplyDate"`
	Classification    string            `json:"classification"`
	ReverseChargeCode string            `json:"reverseChargeCode"`
	CustomerTaxID     string            `json:"customerTaxId"`
	CustomerCompanyID string            `json:"customerCompanyId"`
	TotalNet          string            `json:"totalNet"`
	TotalVat          string            `json:"totalVat"`
	TotalGross        string            `json:"totalGross"`
	Items             []fingerprintItem `json:"items"`
}

// DatasetFingerprint hashes a canonical projection of the selected invoices. Invoices are
// ordered by (supply date, number, id) and line items by position, so storage order never
// affects the result. Decimals are hashed in their normalised form ("100.00" == "100").
func DatasetFingerprint(invoices []models.Invoice) (string, error) {
	projection := make([]fingerprintInvoice, 0, len(invoices))
	for i := range invoices {
		projection = append(projection, projectInvoice(&invoices[i]))
	}

	sort.SliceStable(projection, func(i, j int) bool {
		a, b := projection[i], projection[j]
		if a.TaxableSupplyDate != b.TaxableSupplyDate {
			return a.TaxableSupplyDate < b.TaxableSupplyDate
		}
		if a.InvoiceNumber != b.InvoiceNumber {
			return a.InvoiceNumber < b.InvoiceNumber
		}
		return a.ID < b.ID
	})

	payload, err := json.Marshal(struct {
		Version  string               `json:"version"`
		Invoices []fingerprintInvoice `json:"invoices"`
	}{fingerprintVersion, projection})
	if err != nil {
		return "", fmt.Errorf("failed to encode dataset projection: %w", err)
	}

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func projectInvoice(inv *models.Invoice) fingerprintInvoice {
	items := make([]models.InvoiceLineItem, len(inv.Items))
	copy(items, inv.Items)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Position != items[j].Position {
			return items[i].Position < items[j].Position
		}
		return items[i].ID.String() < items[j].ID.String()
	})

	projected := make([]fingerprintItem, 0, len(items))
	for _, item := range items {
		projected = append(projected, fingerprintItem{
			Position:    item.Position,
			Description: item.Description,
			VatRate:     item.VatRate,
			Net:         item.Net.String(),
			Vat:         item.Vat.String(),
			Gross:       item.Gross.String(),
		})
	}

	return fingerprintInvoice{
		ID:                inv.ID.String(),
		UpdatedAt:         inv.UpdatedAt.UTC().Format(time.RFC3339Nano),
		Status:            string(inv.Status),
		InvoiceNumber:     inv.InvoiceNumber,
		TaxableSupplyDate: inv.TaxableSupplyDate.Format("2006-01-02"),
		Classification:    string(inv.ClassificationOrEmpty()),
		ReverseChargeCode: inv.ReverseChargeCode,
		CustomerTaxID:     inv.CustomerTaxID,
		CustomerCompanyID: inv.CustomerCompanyID,
		TotalNet:          inv.TotalNet.String(),
		TotalVat:          inv.TotalVat.String(),
		TotalGross:        inv.TotalGross.String(),
		Items:             projected,
	}
}
