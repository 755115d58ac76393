// Package naming derives registry keys and synthesized record names from C
// spellings. Every function is pure.
package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"cschema/internal/ctree"
)

var qualifiers = map[string]struct{}{
	"const":      {},
	"volatile":   {},
	"restrict":   {},
	"__restrict": {},
}

var tags = map[string]struct{}{
	"struct": {},
	"union":  {},
	"enum":   {},
}

// words splits a spelling on whitespace after NFC normalization.
func words(spelling string) []string {
	return strings.Fields(norm.NFC.String(spelling))
}

// TagName strips qualifiers and the struct/union/enum keyword from an
// elaborated spelling. anonymous is set for libclang's "(unnamed ...)" and
// "(anonymous ...)" spellings.
func TagName(spelling string) (name string, anonymous bool) {
	if strings.Contains(spelling, "(unnamed") || strings.Contains(spelling, "(anonymous") {
		return "", true
	}
	parts := words(spelling)
	out := parts[:0]
	for _, w := range parts {
		if _, ok := qualifiers[w]; ok {
			continue
		}
		if _, ok := tags[w]; ok {
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " "), false
}

// Canonical turns a primitive spelling into its registry key: qualifiers
// are dropped and multi-word spellings are camel-cased, so
// "const unsigned long long" becomes "unsignedLongLong".
func Canonical(spelling string) string {
	title := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, w := range words(spelling) {
		if _, ok := qualifiers[w]; ok {
			continue
		}
		if b.Len() == 0 {
			b.WriteString(w)
			continue
		}
		b.WriteString(title.String(w))
	}
	return b.String()
}

// Pascal upper-cases the first letter of every alphanumeric run and drops
// the separators: "on_open" -> "OnOpen", "cb[0]" -> "Cb0".
func Pascal(s string) string {
	title := cases.Title(language.Und, cases.NoLower)
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(title.String(p))
	}
	return b.String()
}

// CallbackName names the record synthesized for a function-pointer field.
// The field part is only present when the owner has several such fields.
func CallbackName(owner, field string, multiple bool) string {
	if multiple {
		return owner + Pascal(field) + "CallbackDefinition"
	}
	return owner + "CallbackDefinition"
}

// Nested names an anonymous record declared inside owner's field.
func Nested(owner, field string) string {
	return owner + Pascal(field)
}

// Anonymous names a tagless record that has no naming context, from its
// source location.
func Anonymous(kind string, loc ctree.Location) string {
	stem := strings.TrimSuffix(filepath.Base(loc.File), filepath.Ext(loc.File))
	stem = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, stem)
	if stem == "" || stem == "." {
		stem = "unknown"
	}
	return fmt.Sprintf("Anonymous%s_%s_%d_%d", Pascal(kind), stem, loc.Line, loc.Column)
}
