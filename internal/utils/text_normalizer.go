package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const singleSpaceSeparatorConstant = " "

var diacriticStrippingTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeIdentifier folds a raw name into its canonical matching form:
// diacritics removed, case lowered, and interior whitespace collapsed to
// single spaces. Matching between the response feed and the roster happens
// exclusively on this form.
func NormalizeIdentifier(rawValue string) string {
	strippedValue, _, transformError := transform.String(diacriticStrippingTransformer, rawValue)
	if transformError != nil {
		strippedValue = rawValue
	}

	loweredValue := strings.ToLower(strings.TrimSpace(strippedValue))
	return strings.Join(strings.Fields(loweredValue), singleSpaceSeparatorConstant)
}
