package quantity

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// vulgarFractions maps unicode fraction glyphs to their numeric value.
var vulgarFractions = map[rune]float64{
	'½': 1.0 / 2, '⅓': 1.0 / 3, '⅔': 2.0 / 3,
	'¼': 1.0 / 4, '¾': 3.0 / 4,
	'⅕': 1.0 / 5, '⅖': 2.0 / 5, '⅗': 3.0 / 5, '⅘': 4.0 / 5,
	'⅙': 1.0 / 6, '⅚': 5.0 / 6,
	'⅛': 1.0 / 8, '⅜': 3.0 / 8, '⅝': 5.0 / 8, '⅞': 7.0 / 8,
}

var (
	mixedFractionRe = regexp.MustCompile(`^(\d+)\s+(\d+)\s*/\s*(\d+)`)
	decimalRe       = regexp.MustCompile(`^(\d+)[.,](\d+)`)
	fractionRe      = regexp.MustCompile(`^(\d+)\s*/\s*(\d+)`)
	integerRe       = regexp.MustCompile(`^\d+`)
	rangeSepRe      = regexp.MustCompile(`^(?:[-–—]|(?i:to|bis)\s)\s*`)
)

// Parse decomposes a raw ingredient line into quantity, unit and name.
// It is a total function: any unrecognized pattern degrades to the
// no-quantity case with the line preserved verbatim, and it never fails.
func Parse(line string) Parsed {
	raw := strings.TrimSpace(line)
	fallback := Parsed{Name: raw, RawText: raw}

	if raw == "" {
		return fallback
	}

	value, rest, ok := parseNumber(raw)
	if !ok {
		return fallback
	}

	parsed := Parsed{Quantity: &value, RawText: raw}

	// Range: "2-3", "2 – 3", "2 to 3", "2 bis 3"
	if sep := rangeSepRe.FindString(strings.TrimSpace(rest)); sep != "" {
		afterSep := strings.TrimSpace(rest)[len(sep):]
		if maxValue, maxRest, maxOK := parseNumber(strings.TrimSpace(afterSep)); maxOK {
			parsed.QuantityMax = &maxValue
			rest = maxRest
		}
	}

	// A number glued straight onto letters is only a quantity when the
	// letters form a unit ("100g"), not for words like "2nd".
	if glued := leadingLetters(rest); glued != "" && !isUnit(glued) {
		return fallback
	}

	parsed.Unit, parsed.Name = splitUnit(rest)

	if parsed.Unit == "" && parsed.Name == "" {
		// A bare number is not a usable ingredient; keep the raw line.
		return fallback
	}

	return parsed
}

// parseNumber reads a leading numeric expression: decimals, unicode vulgar
// fractions, ASCII fractions, mixed numbers, or plain integers. It returns
// the remainder of the string after the match.
func parseNumber(s string) (float64, string, bool) {
	if s == "" {
		return 0, s, false
	}

	// Leading unicode fraction: "½ cup"
	runes := []rune(s)
	if v, ok := vulgarFractions[runes[0]]; ok {
		return v, string(runes[1:]), true
	}

	// Mixed ASCII fraction: "1 1/2"
	if m := mixedFractionRe.FindStringSubmatch(s); m != nil {
		whole, _ := strconv.ParseFloat(m[1], 64)
		num, _ := strconv.ParseFloat(m[2], 64)
		den, _ := strconv.ParseFloat(m[3], 64)
		if den != 0 {
			return whole + num/den, s[len(m[0]):], true
		}
	}

	// Decimal with dot or comma separator: "1.5", "1,5"
	if m := decimalRe.FindStringSubmatch(s); m != nil {
		v, err := strconv.ParseFloat(m[1]+"."+m[2], 64)
		if err == nil {
			return v, s[len(m[0]):], true
		}
	}

	// ASCII fraction: "3/4"
	if m := fractionRe.FindStringSubmatch(s); m != nil {
		num, _ := strconv.ParseFloat(m[1], 64)
		den, _ := strconv.ParseFloat(m[2], 64)
		if den != 0 {
			return num / den, s[len(m[0]):], true
		}
	}

	// Integer, optionally glued to a unicode fraction: "2", "1½", "1 ½"
	if m := integerRe.FindString(s); m != "" {
		whole, _ := strconv.ParseFloat(m, 64)
		rest := s[len(m):]
		trimmed := strings.TrimLeft(rest, " ")
		if trimmed != "" {
			if v, ok := vulgarFractions[[]rune(trimmed)[0]]; ok {
				return whole + v, string([]rune(trimmed)[1:]), true
			}
		}
		return whole, rest, true
	}

	return 0, s, false
}

// splitUnit takes the text after the quantity and splits off a recognized
// unit token. The unit is kept as written (minus a trailing dot) so display
// round-trips the original line; an "of" following the unit is dropped.
func splitUnit(rest string) (unit, name string) {
	// Glued unit as in "100g flour": split the leading letter-run first.
	if letters := leadingLetters(rest); letters != "" && isUnit(letters) {
		return letters, strings.TrimSpace(rest[len(letters):])
	}

	rest = strings.TrimSpace(rest)
	if rest == "" {
		return "", ""
	}

	token := rest
	remainder := ""
	if idx := strings.IndexFunc(rest, unicode.IsSpace); idx >= 0 {
		token = rest[:idx]
		remainder = strings.TrimSpace(rest[idx:])
	}

	if !isUnit(token) {
		return "", rest
	}

	unit = strings.TrimSuffix(token, ".")
	name = remainder
	if lower := strings.ToLower(name); lower == "of" {
		name = ""
	} else if strings.HasPrefix(strings.ToLower(name), "of ") {
		name = strings.TrimSpace(name[3:])
	}

	return unit, name
}

// leadingLetters returns the letter-run a string starts with, "" when the
// string starts with anything else.
func leadingLetters(s string) string {
	for i, r := range s {
		if !unicode.IsLetter(r) {
			return s[:i]
		}
	}
	return s
}
