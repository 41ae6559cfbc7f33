package segmenter

import (
	"regexp"
	"strings"
)

var (
	// "Ingredients", "INGREDIENTS FOR 2", "Zutaten (für 4 Portionen)"
	ingredientsHeaderRe = regexp.MustCompile(`(?i)^[^\p{L}\p{N}]*(ingredients?|zutaten|ingredientes|what you(?:'|’)?ll need|du brauchst)\b`)

	// "Method", "Steps:", "Zubereitung", "Anleitung", "So geht's"
	instructionsHeaderRe = regexp.MustCompile(`(?i)^[^\p{L}\p{N}]*(method|steps?|directions?|instructions?|preparation|zubereitung|anleitung|schritte|so geht(?:'|’)?s)\b`)

	// Numbered step with content: "1. Mix", "2) Fold", "3: Bake"
	numberedStepRe = regexp.MustCompile(`^\s*\d{1,2}\s*[.):]\s*\S`)

	// Engagement metrics: "12K likes", "1,024 comments", "3.4M views"
	engagementRe = regexp.MustCompile(`(?i)^\d[\d.,\s]*[km]?\s*(likes?|comments?|views?|shares?|saves?|followers?|gefällt mir)\b`)

	// Nutrition facts: "Kcal: 420", "Protein 32g", "Fett: 11 g"
	nutritionRe = regexp.MustCompile(`(?i)^(kcal|cal(?:orie)?s?|kalorien|n(?:ä|a)hrwerte|macros|protein|eiwei(?:ß|ss)|carbs?|kohlenhydrate|fat|fett|fib(?:er|re)|ballaststoffe|sugar|zucker)\b\s*[:~=]?\s*\d`)

	bulletPrefixRe = regexp.MustCompile(`^[\s•◦▪▸▶►▢◻☐✓✔✗*+–—\-]+`)
	numberPrefixRe = regexp.MustCompile(`^\s*\d{1,2}\s*[.):]\s*`)
	handleRe       = regexp.MustCompile(`^@[\w.]+$`)
	bareNumberRe   = regexp.MustCompile(`^\s*[\d/.,½⅓⅔¼¾⅕⅖⅗⅘⅙⅚⅛⅜⅝⅞\s]+$`)
	hashtagTokenRe = regexp.MustCompile(`^[#＃][\p{L}\p{N}_]+$`)
)

// signOffPhrases terminate collection for the current section; anything
// after them is trailing promotional noise.
var signOffPhrases = []string{
	"enjoy",
	"guten appetit",
	"bon appetit",
	"bon appétit",
	"save this",
	"follow for more",
	"follow me",
	"link in bio",
	"lass es dir schmecken",
	"let me know",
	"tag a friend",
	"recipe below",
}

func isIngredientsHeader(line string) bool {
	return ingredientsHeaderRe.MatchString(line)
}

func isInstructionsHeader(line string) bool {
	return instructionsHeaderRe.MatchString(line)
}

func isNumberedStep(line string) bool {
	return numberedStepRe.MatchString(line)
}

// isBareQuantity matches lines that are only a number or fraction, as OCR
// produces when a quantity and its ingredient end up on separate lines.
func isBareQuantity(line string) bool {
	return line != "" && bareNumberRe.MatchString(line)
}

// isHashtagOnly reports whether every token of the line is a hashtag.
func isHashtagOnly(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	for _, field := range fields {
		if !hashtagTokenRe.MatchString(field) {
			return false
		}
	}
	return true
}

func isEngagementLine(line string) bool {
	return engagementRe.MatchString(line)
}

func isNutritionLine(line string) bool {
	return nutritionRe.MatchString(line)
}

func isSignOff(line string) bool {
	lower := strings.ToLower(strings.TrimSpace(line))
	for _, phrase := range signOffPhrases {
		if strings.HasPrefix(lower, phrase) {
			return true
		}
	}
	return false
}

// hasBulletMarker reports whether the line opens with a list glyph.
func hasBulletMarker(line string) bool {
	prefix := bulletPrefixRe.FindString(line)
	return strings.TrimSpace(prefix) != ""
}

// trimLinePrefix removes bullet glyphs or step numbering before a line is
// collected into a section.
func trimLinePrefix(line string) string {
	if numberPrefixRe.MatchString(line) {
		return strings.TrimSpace(numberPrefixRe.ReplaceAllString(line, ""))
	}
	return strings.TrimSpace(bulletPrefixRe.ReplaceAllString(line, ""))
}

// extractTags pulls hashtag tokens out of a line, lowercased without '#'.
func extractTags(line string) []string {
	var tags []string
	for _, field := range strings.Fields(line) {
		if hashtagTokenRe.MatchString(field) {
			tags = append(tags, strings.ToLower(strings.TrimLeft(field, "#＃")))
		}
	}
	return tags
}
