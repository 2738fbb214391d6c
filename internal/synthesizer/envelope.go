// Package synthesizer renders query results as natural-language answers plus
// a typed visualization descriptor.
package synthesizer

// VizKind is the closed set of visualization shapes. A response carries at
// most one visualization.
type VizKind string

const (
	VizSingleValue VizKind = "single_value"
	VizTable       VizKind = "table"
	VizTimeSeries  VizKind = "time_series"
)

// VizConfig holds presentation hints for a visualization.
type VizConfig struct {
	Title        string `json:"title,omitempty"`
	Icon         string `json:"icon,omitempty"`
	Unit         string `json:"unit,omitempty"`
	DisplayLimit int    `json:"displayLimit,omitempty"`
	Expandable   bool   `json:"expandable,omitempty"`
}

// Visualization describes how a client should render the result.
type Visualization struct {
	Kind   VizKind   `json:"kind"`
	Data   any       `json:"data"`
	Config VizConfig `json:"config"`
}

// TableRow is one row of a table visualization.
type TableRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// SeriesPoint is one bucket of a time-series visualization.
type SeriesPoint struct {
	Bucket string  `json:"bucket"`
	Value  float64 `json:"value"`
}

// Envelope is the terminal artifact of a turn. Success, clarification, and
// failure responses all share this shape, so callers never special-case
// errors structurally.
type Envelope struct {
	Answer                string         `json:"answer"`
	AnswerValue           any            `json:"answerValue,omitempty"`
	Visualization         *Visualization `json:"visualization,omitempty"`
	Sources               []string       `json:"sources,omitempty"`
	QueryPlanDescription  string         `json:"queryPlanDescription,omitempty"`
	RequiresClarification bool           `json:"requiresClarification,omitempty"`
	ErrorKind             string         `json:"errorKind,omitempty"`
	Suggestions           []string       `json:"suggestions,omitempty"`
}
