package notation

import (
	"regexp"
	"strconv"
	"strings"
)

// StyleKind tags the notation family a reference token was written in.
type StyleKind int

const (
	// StyleDecimal is a plain decimal token, the fallback classification.
	StyleDecimal StyleKind = iota
	// StyleSI is an SI-prefixed token such as "2.5u".
	StyleSI
	// StyleScientific is an e-notation token such as "1e-6".
	StyleScientific
	// StyleZero is any token whose numeric value is zero. Zero carries no
	// usable magnitude, so style matching falls back to optimal rendering.
	StyleZero
)

// Style describes how a reference token is written so a new value can be
// rendered to match it.
type Style struct {
	Kind   StyleKind
	Prefix string // SI prefix for StyleSI, may be empty
}

var (
	siTokenRe  = regexp.MustCompile(`^(?:\+)?(\d+(?:\.\d+)?)\s*([fpnumkMG])(?:s)?$`)
	sciTokenRe = regexp.MustCompile(`^(?:\+)?(\d+(?:\.\d+)?)\s*[eE]\s*([+-]?\d+)$`)
)

// ClassifyStyle inspects a reference token and returns the notation style it
// uses. Tokens whose value is zero classify as StyleZero regardless of form.
func ClassifyStyle(reference string) Style {
	s := strings.TrimSpace(reference)
	if s == "" {
		return Style{Kind: StyleDecimal}
	}
	if s == "0" {
		return Style{Kind: StyleZero}
	}

	if m := siTokenRe.FindStringSubmatch(s); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v == 0 {
			return Style{Kind: StyleZero}
		}
		return Style{Kind: StyleSI, Prefix: m[2]}
	}

	if sciTokenRe.MatchString(s) {
		if v, err := Parse(s); err == nil && v == 0 {
			return Style{Kind: StyleZero}
		}
		return Style{Kind: StyleScientific}
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil && v == 0 {
		return Style{Kind: StyleZero}
	}
	return Style{Kind: StyleDecimal}
}

// FormatLikeReference renders value in the same notation family as the
// reference token: same SI prefix, engineering e-notation, or plain decimal.
// A zero or empty reference falls back to SuggestOptimal; a plain-decimal
// rendering that comes out awkward falls back to auto-prefixed SI.
func FormatLikeReference(value float64, reference string) string {
	style := ClassifyStyle(reference)
	switch style.Kind {
	case StyleSI:
		if style.Prefix != "" {
			return FormatSIAs(value, style.Prefix)
		}
	case StyleScientific:
		return FormatEngineering(value, false)
	case StyleZero:
		return SuggestOptimal(value)
	}
	s := formatG(value, 6)
	if IsAwkward(s) {
		return FormatSI(value)
	}
	return s
}
