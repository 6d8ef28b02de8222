package filing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"filing-service/internal/models"
)

func TestNormalizeTaxID(t *testing.T) {
	assert.Equal(t, "12345678", NormalizeTaxID("CZ12345678"))
	assert.Equal(t, "12345678", NormalizeTaxID("cz 123 45 678"))
	assert.Equal(t, "8001011234", NormalizeTaxID(" 8001011234\t"))
	assert.Equal(t, "", NormalizeTaxID("   "))
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name     string
		req      models.FilingRequest
		expected string
	}{
		{
			name:     "vat return month is zero-padded",
			req:      models.FilingRequest{ReportType: models.ReportTypeVatReturn, PeriodType: models.PeriodTypeMonth, Year: 2024, Value: 3},
			expected: "12345678_DPH_202403M.xml",
		},
		{
			name:     "control statement december",
			req:      models.FilingRequest{ReportType: models.ReportTypeControlStatement, PeriodType: models.PeriodTypeMonth, Year: 2024, Value: 12},
			expected: "12345678_DPHKH_202412M.xml",
		},
		{
			name:     "quarter is not padded",
			req:      models.FilingRequest{ReportType: models.ReportTypeVatReturn, PeriodType: models.PeriodTypeQuarter, Year: 2025, Value: 2},
			expected: "12345678_DPH_20252Q.xml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FileName("CZ12345678", tt.req))
		})
	}
}
