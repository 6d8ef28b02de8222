package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"filing-service/internal/models"
)

// InvoiceRepository reads invoices for filings
type InvoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates an invoice repository
func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// FindForFiling returns the owner's issued and paid invoices with a taxable supply date in
// [start, endExclusive), ordered by supply date and invoice number, line items by position.
func (r *InvoiceRepository) FindForFiling(ctx context.Context, ownerID uuid.UUID, start, endExclusive time.Time) ([]models.Invoice, error) {
	var invoices []models.Invoice

	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("owner_id = ?", ownerID).
		Where("status IN ?", models.FileableStatuses).
		Where("taxable_supply_date >= ? AND taxable_supply_date < ?", start, endExclusive).
		Order("taxable_supply_date ASC, invoice_number ASC, id ASC").
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices for filing: %w", err)
	}

	return invoices, nil
}

// CountByStatus counts an owner's invoices per status in [start, endExclusive), including
// the statuses that never enter a filing.
func (r *InvoiceRepository) CountByStatus(ctx context.Context, ownerID uuid.UUID, start, endExclusive time.Time) (map[models.InvoiceStatus]int64, error) {
	var rows []struct {
		Status models.InvoiceStatus
		Count  int64
	}

	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Select("status, COUNT(*) AS count").
		Where("owner_id = ?", ownerID).
		Where("taxable_supply_date >= ? AND taxable_supply_date < ?", start, endExclusive).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count invoices: %w", err)
	}

	counts := make(map[models.InvoiceStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
