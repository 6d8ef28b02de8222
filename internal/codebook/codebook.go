// Package codebook resolves a taxpayer's local tax office to the regional office
// required on filings, using the regulator's published office registry.
package codebook

import (
	"sort"
	"strings"

	"filing-service/internal/apperrors"
	"filing-service/internal/models"
)

// Codebook is an immutable, deduplicated office registry keyed by local code.
type Codebook struct {
	byLocal    map[string]models.OfficeRecord
	rows       int
	duplicates int
}

// Stats describes a loaded codebook.
type Stats struct {
	Rows       int      `json:"rows"`
	Offices    int      `json:"offices"`
	Duplicates int      `json:"duplicates"`
	Unresolved []string `json:"unresolved"` // active local codes without an active parent row
}

// New builds a codebook from raw records. Several historical rows may share a local
// code; an active row replaces a superseded one, otherwise the first row wins.
func New(records []models.OfficeRecord) *Codebook {
	book := &Codebook{
		byLocal: make(map[string]models.OfficeRecord, len(records)),
		rows:    len(records),
	}

	for _, rec := range records {
		existing, ok := book.byLocal[rec.LocalCode]
		if !ok {
			book.byLocal[rec.LocalCode] = rec
			continue
		}
		book.duplicates++
		if existing.Superseded && !rec.Superseded {
			book.byLocal[rec.LocalCode] = rec
		}
	}

	return book
}

// Lookup returns the winning row for a local code.
func (c *Codebook) Lookup(localCode string) (models.OfficeRecord, bool) {
	rec, ok := c.byLocal[localCode]
	return rec, ok
}

// Len returns the number of distinct local codes.
func (c *Codebook) Len() int {
	return len(c.byLocal)
}

// Resolve maps a local office code to its regional office. The parent row is found by
// replacing the last two digits of the local code with "00"; it must be active.
func (c *Codebook) Resolve(localCode string) (models.OfficeAssignment, error) {
	const op = "ResolveOffice"

	code := strings.TrimSpace(localCode)
	if code == "" {
		return models.OfficeAssignment{}, apperrors.New(op, apperrors.ErrOfficeNotAssigned, "")
	}

	if _, ok := c.byLocal[code]; !ok {
		return models.OfficeAssignment{}, apperrors.ForRecord(op, apperrors.ErrOfficeUnknown, code)
	}

	parent, ok := c.parentOf(code)
	if !ok {
		return models.OfficeAssignment{}, apperrors.ForRecord(op, apperrors.ErrRegionalOfficeUnresolved, code)
	}

	return models.OfficeAssignment{
		LocalCode:    code,
		RegionalCode: parent.RegionalCode,
	}, nil
}

func (c *Codebook) parentOf(code string) (models.OfficeRecord, bool) {
	if len(code) < 2 {
		return models.OfficeRecord{}, false
	}
	parent, ok := c.byLocal[code[:len(code)-2]+"00"]
	if !ok || parent.Superseded || parent.RegionalCode == "" {
		return models.OfficeRecord{}, false
	}
	return parent, true
}

// Stats reports row counts and active offices whose regional office cannot be resolved.
func (c *Codebook) Stats() Stats {
	stats := Stats{
		Rows:       c.rows,
		Offices:    len(c.byLocal),
		Duplicates: c.duplicates,
		Unresolved: []string{},
	}
	for code, rec := range c.byLocal {
		if rec.Superseded {
			continue
		}
		if _, ok := c.parentOf(code); !ok {
			stats.Unresolved = append(stats.Unresolved, code)
		}
	}
	sort.Strings(stats.Unresolved)
	return stats
}
