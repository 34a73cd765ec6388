package usecase

import (
	"errors"
	"fmt"
)

var (
	// ErrLoad is returned by loaders when benchmark definitions are malformed.
	ErrLoad = errors.New("benchmark load failed")
)

// MacroExecutionError reports a failed macro. Macro failures are never
// absorbed: they abort the benchmark or the whole run.
type MacroExecutionError struct {
	Macro string
	Err   error
}

func (e *MacroExecutionError) Error() string {
	return fmt.Sprintf("macro %s failed: %v", e.Macro, e.Err)
}

func (e *MacroExecutionError) Unwrap() error {
	return e.Err
}

// ListenerError reports a listener hook that failed or panicked.
type ListenerError struct {
	Listener string
	Hook     string
	Err      error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("listener %s failed on %s: %v", e.Listener, e.Hook, e.Err)
}

func (e *ListenerError) Unwrap() error {
	return e.Err
}
