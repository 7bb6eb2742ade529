package model

// Query holds the processing parameters of one pipeline run. A nil pointer
// means the parameter was not supplied.
type Query struct {
	URLs       []string `json:"urls"`
	From       *string  `json:"from,omitempty"`
	To         *string  `json:"to,omitempty"`
	Summary    *string  `json:"summary,omitempty"`
	Sort       *string  `json:"sort,omitempty"`
	Grouped    *string  `json:"grouped,omitempty"`
	HourlyRate *string  `json:"hourlyRate,omitempty"`
}

// Str returns a pointer to s, convenient for building queries in code.
func Str(s string) *string { return &s }

// Value dereferences p, returning "" for nil.
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
