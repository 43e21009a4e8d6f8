package sheets

import (
	"regexp"
	"strings"
)

// Cell is the subset of a spreadsheet cell the app reads back.
type Cell struct {
	Value     string // formatted value as displayed
	Hyperlink string // link attached to the cell, if any
	Formula   string // user-entered formula, if the cell holds one
}

var hyperlinkFormula = regexp.MustCompile(`(?i)^\s*=\s*HYPERLINK\s*\(\s*["']([^"']+)["']\s*(?:[;,]|\))`)

// EncodeHyperlink renders url as the formula stored in the link column.
//
// Double quotes are percent-encoded so the result stays a valid formula.
func EncodeHyperlink(url string) string {
	return `=HYPERLINK("` + strings.ReplaceAll(url, `"`, "%22") + `"; "URL")`
}

// DecodeLink recovers the URL a cell points to.
//
// The hyperlink attribute wins, then a HYPERLINK formula (either separator, any case), then a plain http(s) value.
// Anything else yields "".
func DecodeLink(c Cell) string {
	if link := strings.TrimSpace(c.Hyperlink); link != "" {
		return link
	}

	if m := hyperlinkFormula.FindStringSubmatch(c.Formula); m != nil {
		return m[1]
	}

	value := strings.TrimSpace(c.Value)
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return value
	}
	return ""
}
