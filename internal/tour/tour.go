// Package tour defines guided code tours: ordered steps that anchor an explanation
// to a line range of a repository file.
package tour

import (
	"encoding/json"
	"fmt"

	"codetour/internal/errors"
)

// LineRange is an inclusive, 1-indexed range of lines.
type LineRange struct {
	Start int
	End   int
}

// Lines is shorthand for LineRange{Start: start, End: end}.
func Lines(start, end int) LineRange {
	return LineRange{Start: start, End: end}
}

// Validate checks 1 <= Start <= End.
func (r LineRange) Validate() error {
	if r.Start < 1 || r.End < r.Start {
		return errors.NewTourError(
			errors.InvalidRange,
			fmt.Sprintf("line range %d-%d must satisfy 1 <= start <= end", r.Start, r.End),
			nil,
			nil,
		).WithDetails(map[string]int{"start": r.Start, "end": r.End})
	}
	return nil
}

// Span is the number of lines after Start covered by the range.
func (r LineRange) Span() int {
	return r.End - r.Start
}

// Shift moves both bounds by delta.
func (r LineRange) Shift(delta int) LineRange {
	return LineRange{Start: r.Start + delta, End: r.End + delta}
}

// MarshalJSON encodes the range as a [start, end] pair, the persisted shape.
func (r LineRange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{r.Start, r.End})
}

// UnmarshalJSON decodes a [start, end] pair.
func (r *LineRange) UnmarshalJSON(data []byte) error {
	var pair [2]int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	r.Start, r.End = pair[0], pair[1]
	return nil
}

func (r LineRange) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Step is one unit of a tour.
type Step struct {
	// Path is repository-relative, forward slashes.
	Path  string    `json:"path"`
	Lines LineRange `json:"lineRange"`

	// SymbolName is the nearest enclosing declaration at recording time.
	SymbolName string `json:"symbolName,omitempty"`

	// ContentFingerprint is the fingerprint of the text spanned by Lines at recording
	// time. Empty means the step is a weak anchor and always resolves fresh.
	ContentFingerprint string `json:"contentFingerprint,omitempty"`

	Annotation      string   `json:"annotation"`
	DisplayDuration *float64 `json:"displayDuration,omitempty"`
}

// Tour is an ordered sequence of steps plus metadata.
type Tour struct {
	Title       string `json:"title"`
	Description string `json:"description"`

	// BaselineRevision is the commit recorded when the tour was saved. Empty disables
	// revision-diff resolution.
	BaselineRevision string `json:"baselineRevision,omitempty"`

	Steps []Step `json:"steps"`
}

// Validate checks the invariants every step must hold.
func (t *Tour) Validate() error {
	return ValidateSteps(t.Steps)
}

// ValidateSteps checks the line range invariant for each step.
func ValidateSteps(steps []Step) error {
	for i, s := range steps {
		if err := s.Lines.Validate(); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, s.Path, err)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (t *Tour) Clone() *Tour {
	out := *t
	out.Steps = make([]Step, len(t.Steps))
	for i, s := range t.Steps {
		if s.DisplayDuration != nil {
			d := *s.DisplayDuration
			s.DisplayDuration = &d
		}
		out.Steps[i] = s
	}
	return &out
}
