package filing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStreet(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected StreetAddress
	}{
		{"building and orientation", "Zerotinova 510/12", StreetAddress{Name: "Zerotinova", Building: "510", Orientation: "12"}},
		{"orientation with letter", "Nádražní 1024/7a", StreetAddress{Name: "Nádražní", Building: "1024", Orientation: "7a"}},
		{"spaces around slash", "Dlouhá 12 / 3", StreetAddress{Name: "Dlouhá", Building: "12", Orientation: "3"}},
		{"building only", "Hlavní 5", StreetAddress{Name: "Hlavní", Building: "5"}},
		{"multi-word name", "Náměstí Míru 820/9", StreetAddress{Name: "Náměstí Míru", Building: "820", Orientation: "9"}},
		{"no number", "Na Příkopě", StreetAddress{Name: "Na Příkopě"}},
		{"village without street", "  Lhota  ", StreetAddress{Name: "Lhota"}},
		{"empty", "", StreetAddress{}},
		{"no-break space before number", "Hlavní\u00a05", StreetAddress{Name: "Hlavní", Building: "5"}},
		{"no-break spaces in name and slash", "Náměstí\u00a0Míru\u00a0820\u00a0/\u00a09", StreetAddress{Name: "Náměstí Míru", Building: "820", Orientation: "9"}},
		{"narrow no-break space", "Dlouhá\u202f12/3", StreetAddress{Name: "Dlouhá", Building: "12", Orientation: "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseStreet(tt.input))
		})
	}
}
