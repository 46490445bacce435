package utils

import (
	"strings"
	"unicode"

	"github.com/baaten/partner_console/models"
)

// normalizePhone removes whitespace and lower-cases
func normalizePhone(s string) string {
	return strings.ToLower(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s))
}

// FilterByPhone keeps the partners whose phone contains the query. An empty
// query returns the input unchanged.
func FilterByPhone(partners []models.Partner, query string) []models.Partner {
	q := normalizePhone(query)
	if q == "" {
		return partners
	}

	out := make([]models.Partner, 0, len(partners))
	for i := range partners {
		if strings.Contains(normalizePhone(partners[i].SearchPhone()), q) {
			out = append(out, partners[i])
		}
	}
	return out
}
