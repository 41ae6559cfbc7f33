package segmenter

import (
	"strings"
)

// Title length cap, applied to platform candidates and body fallbacks alike.
const maxTitleLength = 120

// Segmenter splits free-form recipe text (social captions, OCR output)
// into title, ingredient lines and instruction lines, filtering the noise
// real captions carry: hashtags, engagement stats, nutrition facts, emoji
// decoration and sign-off phrases.
type Segmenter struct{}

func NewSegmenter() *Segmenter {
	return &Segmenter{}
}

// Run classifies the input in a single forward pass over normalized lines.
// It never fails: Success is false when nothing could be extracted and the
// caller offers manual entry instead.
func (s *Segmenter) Run(in Input) Result {
	result := Result{}

	lines := normalizeText(in.Text)

	state := sectionPreamble
	var firstBodyLine string
	var prevCollected string
	tagSet := make(map[string]bool)

	for _, line := range lines {
		if line == "" {
			continue
		}

		// Noise filters apply in every state.
		if isHashtagOnly(line) {
			for _, tag := range extractTags(line) {
				if !tagSet[tag] {
					tagSet[tag] = true
					result.Tags = append(result.Tags, tag)
				}
			}
			continue
		}
		if isEngagementLine(line) || !isSubstantive(line) {
			continue
		}

		// Terminal markers close the current section instead of being
		// collected as content.
		if isSignOff(line) || isNutritionLine(line) {
			if state == sectionIngredients || state == sectionInstructions {
				state = sectionDone
			}
			continue
		}

		switch state {
		case sectionPreamble:
			if isIngredientsHeader(line) {
				state = sectionIngredients
				continue
			}
			if isInstructionsHeader(line) {
				state = sectionInstructions
				continue
			}
			// A bulleted line before any header is almost always the start
			// of a flat ingredient list.
			if hasBulletMarker(line) {
				state = sectionIngredients
				result.Ingredients = append(result.Ingredients, trimLinePrefix(line))
				prevCollected = line
				continue
			}
			if firstBodyLine == "" {
				firstBodyLine = line
			}

		case sectionIngredients:
			if isInstructionsHeader(line) {
				state = sectionInstructions
				continue
			}
			// Numbered steps after a run of ingredient lines mark the
			// implicit start of instructions, except straight after a bare
			// quantity line (OCR splitting "1" from "cup flour").
			if isNumberedStep(line) && !isBareQuantity(prevCollected) {
				state = sectionInstructions
				result.Instructions = append(result.Instructions, trimLinePrefix(line))
				prevCollected = line
				continue
			}
			result.Ingredients = append(result.Ingredients, trimLinePrefix(line))
			prevCollected = line

		case sectionInstructions:
			if isIngredientsHeader(line) {
				state = sectionIngredients
				continue
			}
			result.Instructions = append(result.Instructions, trimLinePrefix(line))
			prevCollected = line

		case sectionDone:
			// Trailing noise after a sign-off is dropped entirely.
		}
	}

	result.Title = resolveTitle(in.PostTitle, firstBodyLine)
	result.Success = len(result.Ingredients) > 0 || len(result.Instructions) > 0

	return result
}

// resolveTitle prefers a short, clean platform-provided candidate and falls
// back to the first substantive body line. Both are hard-capped at
// maxTitleLength.
func resolveTitle(candidate, fallback string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate != "" && len([]rune(candidate)) <= maxTitleLength && !looksLikeHandle(candidate) {
		return candidate
	}

	fallback = strings.TrimSpace(trimLinePrefix(fallback))
	return truncateTitle(fallback)
}

func looksLikeHandle(s string) bool {
	if handleRe.MatchString(s) {
		return true
	}
	lower := strings.ToLower(s)
	return strings.Contains(lower, "http://") || strings.Contains(lower, "https://")
}

func truncateTitle(s string) string {
	runes := []rune(s)
	if len(runes) <= maxTitleLength {
		return s
	}
	return strings.TrimSpace(string(runes[:maxTitleLength]))
}
