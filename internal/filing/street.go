package filing

import (
	"regexp"
	"strings"
	"unicode"
)

// StreetAddress is a free-text street split into the parts the party block needs.
type StreetAddress struct {
	Name        string // ulice
	Building    string // c_pop, číslo popisné
	Orientation string // c_orient, číslo orientační
}

var streetPatterns = []struct {
	re    *regexp.Regexp
	parse func(m []string) StreetAddress
}{
	// "Zerotinova 510/12", "Nádražní 1024/7a"
	{
		re: regexp.MustCompile(`^(.*\S)\s+(\d+)\s*/\s*(\d+[A-Za-z]?)$`),
		parse: func(m []string) StreetAddress {
			return StreetAddress{Name: m[1], Building: m[2], Orientation: m[3]}
		},
	},
	// "Hlavní 5"
	{
		re: regexp.MustCompile(`^(.*\S)\s+(\d+)$`),
		parse: func(m []string) StreetAddress {
			return StreetAddress{Name: m[1], Building: m[2]}
		},
	},
}

// ParseStreet splits free text into name, building and orientation number. It is a
// best-effort heuristic: the first matching pattern wins and input with no numeric
// suffix is returned whole as the name. It never fails.
func ParseStreet(street string) StreetAddress {
	trimmed := strings.TrimSpace(foldSpaces(street))
	for _, p := range streetPatterns {
		if m := p.re.FindStringSubmatch(trimmed); m != nil {
			return p.parse(m)
		}
	}
	return StreetAddress{Name: trimmed}
}

// foldSpaces turns no-break and other Unicode spaces into ASCII spaces; RE2 \s
// only matches ASCII whitespace.
func foldSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if r != ' ' && unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, s)
}
