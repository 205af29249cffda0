package vm

import (
	"github.com/deepnoodle-ai/xq/bytecode"
	"github.com/deepnoodle-ai/xq/op"
	"github.com/deepnoodle-ai/xq/value"
)

// StepMode controls when OnStep callbacks are triggered.
type StepMode uint8

const (
	// StepAll calls OnStep for every instruction.
	StepAll StepMode = iota

	// StepNone never calls OnStep.
	StepNone

	// StepSampled calls OnStep every N instructions.
	StepSampled
)

// ObserverConfig specifies what events an observer wants to receive.
// Use NewObserverConfig() to create configs with safe defaults.
type ObserverConfig struct {
	// StepMode controls OnStep callback frequency.
	StepMode StepMode

	// SampleInterval is the number of instructions between OnStep calls
	// when StepMode is StepSampled. Values <= 0 are treated as 1.
	SampleInterval int

	// ObserveForks enables OnFork callbacks.
	ObserveForks bool

	// ObserveOutputs enables OnOutput callbacks.
	ObserveOutputs bool
}

// NewObserverConfig creates a config with fork and output events enabled.
func NewObserverConfig(mode StepMode) ObserverConfig {
	return ObserverConfig{
		StepMode:       mode,
		SampleInterval: 1000,
		ObserveForks:   true,
		ObserveOutputs: true,
	}
}

// NormalizeConfig validates and clamps config values.
func NormalizeConfig(cfg ObserverConfig) ObserverConfig {
	if cfg.StepMode == StepSampled && cfg.SampleInterval <= 0 {
		cfg.SampleInterval = 1
	}
	return cfg
}

// Observer receives machine execution events. It is useful for tracing,
// profiling and tests that need to see inside a run.
//
// Observer methods are called synchronously. Returning false from any of
// them halts the machine: the pending Next call yields ErrHalted and the
// result sequence ends.
type Observer interface {
	// Config is called once when the observer is attached.
	Config() ObserverConfig

	// OnStep is called before an instruction executes.
	OnStep(event StepEvent) bool

	// OnFork is called after a Fork instruction suspends a new fork.
	OnFork(event ForkEvent) bool

	// OnOutput is called when an Output instruction produces a result.
	OnOutput(event OutputEvent) bool
}

// StepEvent describes the instruction about to execute.
type StepEvent struct {
	Fork       int
	PC         bytecode.Address
	Opcode     op.Code
	OpcodeName string
	// StackDepth is the operand stack depth before the instruction runs.
	StackDepth int
	// ScopeDepth is the number of open scopes.
	ScopeDepth int
	// LiveLevels is the number of scope levels that currently have a scope.
	LiveLevels int
	// Pending is the number of suspended forks.
	Pending int
}

// ForkEvent describes a newly suspended fork.
type ForkEvent struct {
	// Fork is the id of the fork that executed the Fork instruction.
	Fork int
	// NewFork is the id of the suspended copy.
	NewFork int
	PC      bytecode.Address
	Target  bytecode.Address
	Pending int
}

// OutputEvent describes one result.
type OutputEvent struct {
	Fork int
	PC   bytecode.Address
	// Value is nil when Err is set.
	Value value.Value
	Err   error
	// StackDepth is the operand stack depth when Output began.
	StackDepth int
}

// NoOpObserver is an Observer that does nothing. Embed it to implement only
// the callbacks you need.
type NoOpObserver struct{}

func (NoOpObserver) Config() ObserverConfig {
	return NewObserverConfig(StepAll)
}

func (NoOpObserver) OnStep(StepEvent) bool     { return true }
func (NoOpObserver) OnFork(ForkEvent) bool     { return true }
func (NoOpObserver) OnOutput(OutputEvent) bool { return true }

var _ Observer = NoOpObserver{}
