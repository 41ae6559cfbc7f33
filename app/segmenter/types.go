package segmenter

// Input carries raw recipe text plus optional metadata from the import flow.
type Input struct {
	Text         string
	PostTitle    string // Candidate title supplied by the platform, if any
	PlatformHint string // e.g. "instagram", "tiktok", "ocr"
}

// Result is the segmented recipe. Success is a flag, not an error: callers
// fall back to manual entry when nothing could be extracted.
type Result struct {
	Title        string
	Ingredients  []string
	Instructions []string
	ImageURL     string
	Tags         []string
	Success      bool
}

// section is the classifier state while walking the normalized lines.
type section int

const (
	sectionPreamble section = iota
	sectionIngredients
	sectionInstructions
	sectionDone
)
