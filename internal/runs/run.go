package runs

import (
	"time"

	"github.com/google/uuid"
)

// Kind is the operation a run recorded.
type Kind string

const (
	KindCheck  Kind = "check"
	KindRepair Kind = "repair"
)

// Run is one recorded check or repair of a tour.
type Run struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	TourPath  string    `json:"tourPath"`
	Baseline  string    `json:"baseline,omitempty"`
	Revision  string    `json:"revision,omitempty"`
	CreatedAt time.Time `json:"createdAt"`

	// Counts. Check runs fill the status counts, repair runs Fixed and Unresolved.
	Steps            int  `json:"steps"`
	Fresh            int  `json:"fresh,omitempty"`
	RevisionResolved int  `json:"revisionResolved,omitempty"`
	Drifted          int  `json:"drifted,omitempty"`
	Missing          int  `json:"missing,omitempty"`
	Fixed            int  `json:"fixed,omitempty"`
	Unresolved       int  `json:"unresolved,omitempty"`
	Repaired         bool `json:"repaired,omitempty"`

	// Report is the full JSON report of the run. It is stored compressed and only
	// loaded by Get.
	Report []byte `json:"report,omitempty"`
}

// NewRun creates a run with a fresh ID.
func NewRun(kind Kind, tourPath string) *Run {
	return &Run{
		ID:        uuid.New().String(),
		Kind:      kind,
		TourPath:  tourPath,
		CreatedAt: time.Now().UTC(),
	}
}

// ListOptions filters List.
type ListOptions struct {
	TourPath string
	Kind     Kind
	Limit    int
	Offset   int
}

// ListResponse is a page of runs, newest first, without reports.
type ListResponse struct {
	Runs       []*Run `json:"runs"`
	TotalCount int    `json:"totalCount"`
}
