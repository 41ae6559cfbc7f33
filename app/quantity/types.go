package quantity

// Parsed is the structured decomposition of one raw ingredient line.
// Quantity is nil when the line has no recognizable leading amount; such
// lines keep their raw text and are displayed unscaled.
type Parsed struct {
	Quantity    *float64
	QuantityMax *float64 // Upper bound for ranges like "2-3 cloves"
	Unit        string   // Unit token as written, "" when unrecognized
	Name        string
	RawText     string
}
