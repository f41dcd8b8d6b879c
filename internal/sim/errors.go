package sim

import (
	"errors"
	"fmt"
)

// PlacementError reports a rejected grid mutation. The grid is left
// untouched whenever one is returned.
type PlacementError struct {
	X, Y   int
	Kind   TileKind
	Reason string
}

func (e *PlacementError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("cannot place %s at (%d,%d): %s", e.Kind, e.X, e.Y, e.Reason)
	}
	return fmt.Sprintf("invalid tile operation at (%d,%d): %s", e.X, e.Y, e.Reason)
}

// EconomyError reports an action that would overdraw cash. The action
// is rejected before any state mutation.
type EconomyError struct {
	Action string
	Cost   int
	Cash   int
}

func (e *EconomyError) Error() string {
	return fmt.Sprintf("%s needs $%d but only $%d available", e.Action, e.Cost, e.Cash)
}

// CommandError reports a rejected command that is neither a placement
// nor an economy failure (unknown keys, locked channels, bad focus).
type CommandError struct {
	Command string
	Reason  string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Reason)
}

// IsPlacementError reports whether err is (or wraps) a PlacementError.
func IsPlacementError(err error) bool {
	var pe *PlacementError
	return errors.As(err, &pe)
}

// IsEconomyError reports whether err is (or wraps) an EconomyError.
func IsEconomyError(err error) bool {
	var ee *EconomyError
	return errors.As(err, &ee)
}
