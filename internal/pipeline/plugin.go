package pipeline

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/KaramelBytes/datasight/internal/dataset"
)

// Category places a plugin into one of the three ordered execution phases.
// A phase does not begin until every plugin in the prior phase has reached a
// terminal status.
type Category int

const (
	Core Category = iota
	Advanced
	Intelligence
)

func (c Category) String() string {
	switch c {
	case Core:
		return "core"
	case Advanced:
		return "advanced"
	case Intelligence:
		return "intelligence"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Plugin is one independently-authored analysis stage. Run receives a view of
// the context restricted to the plugin's declared dependencies and must not
// mutate the dataset frame.
type Plugin interface {
	ID() string
	DependsOn() []string
	Category() Category
	Run(ctx context.Context, view *View, frame *dataset.Frame) (any, error)
}

// Status is the terminal state of a stage within a run.
type Status string

const (
	StatusOk      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// StageResult records the outcome of one plugin. Exactly one is written per
// plugin per run, and it is immutable once stored in the context.
type StageResult struct {
	PluginID string
	Status   Status
	Payload  any
	Reason   string
}

// Sentinel errors for the orchestrator's fatal conditions. Everything else is
// recovered into a Failed or Skipped stage result.
var (
	ErrCyclicDependency  = errors.New("cyclic plugin dependency")
	ErrUnknownDependency = errors.New("unknown plugin dependency")
	ErrDuplicatePlugin   = errors.New("duplicate plugin id")
	ErrDuplicateResult   = errors.New("stage result already recorded")
)

// errSkip marks a plugin that declined to run (e.g. no target column). The
// orchestrator records it as Skipped rather than Failed.
var errSkip = errors.New("stage skipped")

// Skip returns the error a plugin's Run should return when its preconditions
// for this dataset are not met. The reason surfaces in the stage result.
func Skip(reason string) error {
	return errors.Wrap(errSkip, reason)
}

// IsSkip reports whether err was produced by Skip.
func IsSkip(err error) bool {
	return errors.Is(err, errSkip)
}
