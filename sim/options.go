// options.go — the simulator's public input contract, spec.md §4.4.1.
package sim

import (
	"go.uber.org/zap"

	"github.com/Janji03/Racing-Choreographies-parser/runtime"
)

// RacePolicy selects how Simulator.Run elects a race's winner.
type RacePolicy int

const (
	// Random draws one uniform bit per race from the run's seeded PRNG.
	Random RacePolicy = iota
	// Left always elects the left operand.
	Left
	// Right always elects the right operand.
	Right
)

func (p RacePolicy) String() string {
	switch p {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "random"
	}
}

// InitBinding is one (process, var, value) triple applied to the store
// before main runs, in the order given.
type InitBinding struct {
	Process string
	Var     string
	Value   runtime.Value
}

// Default budgets, spec.md §4.4.1.
const (
	DefaultMaxSteps     uint64 = 100_000
	DefaultMaxCallDepth uint64 = 1_000
)

// Options configures one Simulator.Run call. The zero value is not directly
// usable — call NewOptions to get sane defaults (RacePolicy=Random,
// MaxSteps/MaxCallDepth at their spec.md defaults, Trace enabled).
type Options struct {
	RacePolicy   RacePolicy
	Seed         uint64
	MaxSteps     uint64
	MaxCallDepth uint64
	Trace        bool
	Init         []InitBinding

	// Logger receives operational diagnostics about the run's lifecycle
	// (start, finish, faults); nothing is logged as the step or call-depth
	// budget is approached. It is a side channel: nothing it does can affect
	// Result. A nil Logger means zap.NewNop().
	Logger *zap.Logger
}

// NewOptions returns an Options populated with spec.md §4.4.1's defaults.
func NewOptions() Options {
	return Options{
		RacePolicy:   Random,
		MaxSteps:     DefaultMaxSteps,
		MaxCallDepth: DefaultMaxCallDepth,
		Trace:        true,
	}
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
