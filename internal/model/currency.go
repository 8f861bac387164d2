package model

import "strings"

// SupportedCurrencies is both the set of selectable base currencies and the
// target set queried for historical rates.
var SupportedCurrencies = []string{"EUR", "USD", "JPY", "GBP", "TRY", "CAD", "INR", "CNY"}

const (
	MinWindowDays     = 1
	MaxWindowDays     = 30
	DefaultWindowDays = 7
	DefaultBase       = "USD"
)

func IsSupported(code string) bool {
	code = strings.ToUpper(code)
	for _, c := range SupportedCurrencies {
		if c == code {
			return true
		}
	}
	return false
}

// TargetCurrencies returns the supported currencies excluding base.
func TargetCurrencies(base string) []string {
	base = strings.ToUpper(base)
	targets := make([]string, 0, len(SupportedCurrencies))
	for _, c := range SupportedCurrencies {
		if c != base {
			targets = append(targets, c)
		}
	}
	return targets
}

func ValidateBase(base string) error {
	if !IsSupported(base) {
		return ErrInvalidBase
	}
	return nil
}

func ValidateWindow(days int) error {
	if days < MinWindowDays || days > MaxWindowDays {
		return ErrInvalidWindow
	}
	return nil
}
