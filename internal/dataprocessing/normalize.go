package dataprocessing

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"ventaperdida/internal/config"
	"ventaperdida/pkg/contracts/domain"
)

var (
	unnamedHeader = regexp.MustCompile(`(?i)^unnamed`)
	spaceRun      = regexp.MustCompile(`[\s_]+`)
)

// foldHeader reduces a header to a comparable form: accents removed,
// lower-cased, underscores and whitespace runs collapsed to one space.
func foldHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(strings.TrimSpace(folded))
	return spaceRun.ReplaceAllString(folded, " ")
}

// headerResolver maps source headers to canonical columns using the alias table.
type headerResolver struct {
	aliases map[string]domain.Column
	dropped map[string]bool
}

func newHeaderResolver(tables *config.Tables) *headerResolver {
	r := &headerResolver{
		aliases: make(map[string]domain.Column),
		dropped: make(map[string]bool),
	}
	for canonical, aliases := range tables.HeaderAliases {
		col := domain.Column(canonical)
		r.aliases[foldHeader(canonical)] = col
		for _, alias := range aliases {
			r.aliases[foldHeader(alias)] = col
		}
	}
	for _, d := range tables.DroppedColumns {
		r.dropped[foldHeader(d)] = true
	}
	return r
}

// resolve returns the position of each recognized canonical column. Empty,
// placeholder and dropped headers are ignored; the first occurrence wins.
func (r *headerResolver) resolve(headers []string) map[domain.Column]int {
	positions := make(map[domain.Column]int)
	for i, h := range headers {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		if h == "" || unnamedHeader.MatchString(h) {
			continue
		}
		folded := foldHeader(h)
		if r.dropped[folded] {
			continue
		}
		col, ok := r.aliases[folded]
		if !ok {
			continue
		}
		if _, seen := positions[col]; !seen {
			positions[col] = i
		}
	}
	return positions
}

// missingColumns lists the required columns absent from positions.
func missingColumns(positions map[domain.Column]int, required ...domain.Column) []string {
	var missing []string
	for _, col := range required {
		if _, ok := positions[col]; !ok {
			missing = append(missing, string(col))
		}
	}
	return missing
}

// cell returns the trimmed value of col in row, or "" when absent.
func cell(row []string, positions map[domain.Column]int, col domain.Column) string {
	i, ok := positions[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// NormalizeCode brings a code to one canonical text form whatever the cell
// type was: "100.0", "0100" and "100" all become "100". Non-numeric text is
// only trimmed.
func NormalizeCode(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	if isDigits(s) {
		if t := strings.TrimLeft(s, "0"); t != "" {
			return t
		}
		return "0"
	}
	if !strings.ContainsAny(s, ".eE") {
		return s
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	if f != float64(int64(f)) {
		return s
	}
	return strconv.FormatInt(int64(f), 10)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// truncateCode keeps the first width characters of a normalized code.
func truncateCode(s string, width int) string {
	s = NormalizeCode(s)
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width])
}

// recodeProvider maps a raw provider through the recode table. keep is false
// when the recoded value is the removal sentinel.
func recodeProvider(raw string, tables *config.Tables) (provider string, keep bool) {
	provider = strings.TrimSpace(raw)
	if recoded, ok := tables.ProviderRecode[provider]; ok {
		provider = recoded
	}
	if tables.RemoveProvider != "" && provider == tables.RemoveProvider {
		return provider, false
	}
	return provider, true
}

// isBrand reports whether description mentions token, ignoring case.
func isBrand(description, token string) bool {
	if token == "" {
		return false
	}
	return strings.Contains(strings.ToLower(description), strings.ToLower(token))
}

// parseAmount parses a currency value. Thousands separators, currency signs
// and spaces are ignored; empty input is zero.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if s == "" || s == "-" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// roundAmount rounds half away from zero to whole currency units and
// clamps negatives to zero.
func roundAmount(d decimal.Decimal) int64 {
	n := d.Round(0).IntPart()
	if n < 0 {
		return 0
	}
	return n
}
