package services

import (
	"fmt"
	"time"

	"filing-service/internal/apperrors"
	"filing-service/internal/models"
)

// ValidatePeriod checks the period type, year and value of a request.
func ValidatePeriod(req models.FilingRequest) error {
	const op = "ResolvePeriod"

	if req.Year < 1000 || req.Year > 9999 {
		return apperrors.New(op, apperrors.ErrInvalidPeriod, fmt.Sprintf("year %d is not a 4-digit year", req.Year))
	}

	switch req.PeriodType {
	case models.PeriodTypeMonth:
		if req.Value < 1 || req.Value > 12 {
			return apperrors.New(op, apperrors.ErrInvalidPeriod, fmt.Sprintf("month must be 1-12, got %d", req.Value))
		}
	case models.PeriodTypeQuarter:
		if req.Value < 1 || req.Value > 4 {
			return apperrors.New(op, apperrors.ErrInvalidPeriod, fmt.Sprintf("quarter must be 1-4, got %d", req.Value))
		}
	default:
		return apperrors.New(op, apperrors.ErrInvalidPeriod, fmt.Sprintf("unknown period type %q", req.PeriodType))
	}

	return nil
}

// ResolvePeriod turns a filing request into its half-open UTC date range.
// Months span one calendar month, quarters three; December rolls into January.
func ResolvePeriod(req models.FilingRequest) (models.PeriodRange, error) {
	if err := ValidatePeriod(req); err != nil {
		return models.PeriodRange{}, err
	}

	startMonth, months := req.Value, 1
	if req.PeriodType == models.PeriodTypeQuarter {
		startMonth, months = (req.Value-1)*3+1, 3
	}

	start := time.Date(req.Year, time.Month(startMonth), 1, 0, 0, 0, 0, time.UTC)
	return models.PeriodRange{
		Start:        start,
		EndExclusive: start.AddDate(0, months, 0),
	}, nil
}
