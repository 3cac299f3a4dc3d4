package backend

import (
	"fmt"

	"github.com/arloliu/measio/errs"
)

// State is a backend lifecycle state.
type State uint8

const (
	StateUnopened State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Lifecycle tracks the Unopened, Open, Closed state machine of a backend.
// Closed is terminal.
type Lifecycle struct {
	state State
}

// Open moves an unopened lifecycle to Open.
func (l *Lifecycle) Open() error {
	if l.state != StateUnopened {
		return fmt.Errorf("%w: cannot open a %s backend", errs.ErrInvalidOperation, l.state)
	}
	l.state = StateOpen

	return nil
}

// Close moves the lifecycle to Closed and reports whether it was open before.
func (l *Lifecycle) Close() bool {
	wasOpen := l.state == StateOpen
	l.state = StateClosed

	return wasOpen
}

// State returns the current state.
func (l *Lifecycle) State() State {
	return l.state
}

// Closed reports whether Close has been called.
func (l *Lifecycle) Closed() bool {
	return l.state == StateClosed
}

// Check returns an error wrapping errs.ErrClosedResource unless the lifecycle is Open.
func (l *Lifecycle) Check() error {
	if l.state != StateOpen {
		return fmt.Errorf("%w: backend is %s", errs.ErrClosedResource, l.state)
	}

	return nil
}
