package catalog

import (
	"errors"
	"strings"
	"unicode"
)

const skuDigits = 4

var (
	errEmptyCategory = errors.New("category is required")
	errBadCategory   = errors.New("category must be at most 12 letters or digits")
	errNoDigits      = errors.New("number must contain at least one digit")
)

// DeriveSKU keeps the first four digits of number, left pads them with zeros and prefixes
// the upper cased category: ("ad", "12a345") gives "AD1234".
func DeriveSKU(category, number string) (string, error) {
	category = strings.ToUpper(strings.TrimSpace(category))
	if category == "" {
		return "", errEmptyCategory
	}
	if len(category) > 12 || !validCategory(category) {
		return "", errBadCategory
	}

	digits := strings.Builder{}
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
		if digits.Len() == skuDigits {
			break
		}
	}
	if digits.Len() == 0 {
		return "", errNoDigits
	}
	return category + strings.Repeat("0", skuDigits-digits.Len()) + digits.String(), nil
}

// CurrentPrice picks the entry with the latest effective date, nil for no entries.
func CurrentPrice(entries []PriceEntry) *PriceEntry {
	var current *PriceEntry
	for i := range entries {
		if current == nil || entries[i].EffDate.After(current.EffDate) {
			current = &entries[i]
		}
	}
	if current == nil {
		return nil
	}
	c := *current
	return &c
}

func validCategory(category string) bool {
	for _, r := range category {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
