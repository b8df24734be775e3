package datamodule

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrPrecondition is wrapped by PreconditionError: the dataset layout on disk is not usable.
	ErrPrecondition = errors.New("dataset precondition violated")

	// ErrMissingDataDir is returned by Config.Validate when data_dir is not set.
	ErrMissingDataDir = errors.New("data_dir is required")

	// ErrInvalidConfig is returned by Config.Validate for out of range options.
	ErrInvalidConfig = errors.New("invalid data module configuration")

	// ErrEmptyRoot is returned when resolving the splits of an empty dataset root.
	ErrEmptyRoot = errors.New("empty dataset root")

	// ErrNotImplemented is returned by variants that don't define how to resolve their splits.
	ErrNotImplemented = errors.New("split resolution not implemented")

	// ErrUnknownVariant is returned by LookupVariant for names that were never registered.
	ErrUnknownVariant = errors.New("unknown dataset variant")

	// ErrUnimplementedStage is returned by Setup for stages other than fit and test.
	ErrUnimplementedStage = errors.New("unimplemented stage")

	// ErrStageNotSetup is wrapped by StageError.
	ErrStageNotSetup = errors.New("stage not set up")
)

// PreconditionError reports a split directory that is missing or not a directory.
type PreconditionError struct {
	Split Split
	Path  string
	Err   error
}

func (e *PreconditionError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s split directory is not set", ErrPrecondition, e.Split)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s split directory %q: %v", ErrPrecondition, e.Split, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s split directory %q is not a directory", ErrPrecondition, e.Split, e.Path)
}

// Is makes errors.Is(err, ErrPrecondition) true.
func (e *PreconditionError) Is(target error) bool { return target == ErrPrecondition }

func (e *PreconditionError) Unwrap() error { return e.Err }

// StageError is returned when a loader is requested for a split whose stage
// was never set up, e.g. TestLoader after Setup(StageFit).
type StageError struct {
	Split    Split
	Required Stage
	Current  Stage
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: the %s loader requires Setup(%s), current stage is %s",
		ErrStageNotSetup, e.Split, e.Required, e.Current)
}

// Is makes errors.Is(err, ErrStageNotSetup) true.
func (e *StageError) Is(target error) bool { return target == ErrStageNotSetup }
