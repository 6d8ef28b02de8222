package filing

import (
	"fmt"
	"strings"
	"unicode"

	"filing-service/internal/models"
)

// NormalizeTaxID prepares a DIČ the way the filing portal expects it: whitespace removed,
// upper-cased and without a leading two-letter country prefix ("cz 123 45 678" -> "12345678").
func NormalizeTaxID(raw string) string {
	id := strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw))

	if len(id) >= 2 && isASCIILetter(id[0]) && isASCIILetter(id[1]) {
		id = id[2:]
	}
	return id
}

func isASCIILetter(b byte) bool {
	return b >= 'A' && b <= 'Z'
}

// FileName returns "{taxId}_{DPH|DPHKH}_{year}{value}{M|Q}.xml". Months are zero-padded
// to two digits, quarters are not.
func FileName(taxID string, req models.FilingRequest) string {
	kind := "DPH"
	if req.ReportType == models.ReportTypeControlStatement {
		kind = "DPHKH"
	}

	period := fmt.Sprintf("%d%02dM", req.Year, req.Value)
	if req.PeriodType == models.PeriodTypeQuarter {
		period = fmt.Sprintf("%d%dQ", req.Year, req.Value)
	}

	return fmt.Sprintf("%s_%s_%s.xml", NormalizeTaxID(taxID), kind, period)
}
