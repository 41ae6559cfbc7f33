package quantity

import (
	"math"
	"strconv"
	"strings"
)

// Scale multiplies a parsed quantity (and range upper bound) by factor.
// Lines without a quantity are returned unchanged; scaling is purely
// multiplicative per ingredient, with no rounding to shoppable units.
func Scale(p Parsed, factor float64) Parsed {
	scaled := p
	if p.Quantity != nil {
		v := *p.Quantity * factor
		scaled.Quantity = &v
	}
	if p.QuantityMax != nil {
		v := *p.QuantityMax * factor
		scaled.QuantityMax = &v
	}
	return scaled
}

// displayFractions lists the values renderable as a single unicode glyph,
// ordered for nearest-match lookup.
var displayFractions = []struct {
	value float64
	glyph string
}{
	{1.0 / 8, "⅛"}, {1.0 / 6, "⅙"}, {1.0 / 5, "⅕"}, {1.0 / 4, "¼"},
	{1.0 / 3, "⅓"}, {3.0 / 8, "⅜"}, {2.0 / 5, "⅖"}, {1.0 / 2, "½"},
	{3.0 / 5, "⅗"}, {5.0 / 8, "⅝"}, {2.0 / 3, "⅔"}, {3.0 / 4, "¾"},
	{4.0 / 5, "⅘"}, {5.0 / 6, "⅚"}, {7.0 / 8, "⅞"},
}

const fractionEpsilon = 0.01

// FormatQuantity renders a numeric quantity for display: whole numbers as
// integers, values in the supported fraction set as unicode glyphs
// (0.5 -> "½", 4.5 -> "4½"), everything else as a short decimal.
func FormatQuantity(n float64) string {
	whole := math.Floor(n + fractionEpsilon)
	frac := n - whole

	if frac < fractionEpsilon {
		return strconv.FormatInt(int64(whole), 10)
	}

	for _, f := range displayFractions {
		if math.Abs(frac-f.value) < fractionEpsilon {
			if whole == 0 {
				return f.glyph
			}
			return strconv.FormatInt(int64(whole), 10) + f.glyph
		}
	}

	s := strconv.FormatFloat(n, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}

// FormatRange renders a quantity range as "min–max".
func FormatRange(min, max float64) string {
	return FormatQuantity(min) + "–" + FormatQuantity(max)
}

// Format renders a parsed ingredient back to display text, approximating
// the original line for the structured portion. No-quantity lines render
// verbatim.
func Format(p Parsed) string {
	if p.Quantity == nil {
		if p.RawText != "" {
			return p.RawText
		}
		return p.Name
	}

	var parts []string
	if p.QuantityMax != nil {
		parts = append(parts, FormatRange(*p.Quantity, *p.QuantityMax))
	} else {
		parts = append(parts, FormatQuantity(*p.Quantity))
	}
	if p.Unit != "" {
		parts = append(parts, p.Unit)
	}
	if p.Name != "" {
		parts = append(parts, p.Name)
	}

	return strings.Join(parts, " ")
}
