package auditraq

import (
	"errors"
	"fmt"
	"strings"
)

// RunError is returned if session was successfully started, but one of its
// units and/or closing of resources failed.
type RunError struct {
	ErrRun   error
	ErrClose error
}

func (e *RunError) Error() string {
	switch {
	case e.ErrRun != nil && e.ErrClose != nil:
		return fmt.Sprintf("close error: %v after run error: %v", e.ErrClose, e.ErrRun)
	case e.ErrRun != nil:
		return fmt.Sprintf("run error: %v", e.ErrRun)
	case e.ErrClose != nil:
		return fmt.Sprintf("close error: %v", e.ErrClose)
	}
	return ""
}

// Is checks if any of errors match provided sentinel error.
func (e *RunError) Is(err error) bool {
	if e.ErrRun != nil && errors.Is(e.ErrRun, err) {
		return true
	}
	if e.ErrClose != nil && errors.Is(e.ErrClose, err) {
		return true
	}
	return false
}

// Errors wraps errors that might occure when multiple components are
// failing.
type Errors []error

func (e Errors) Error() string {
	s := []string{}
	for _, se := range e {
		s = append(s, se.Error())
	}
	return strings.Join(s, ",")
}

// Is checks if any of errors match provided sentinel error.
func (e Errors) Is(err error) bool {
	for _, se := range e {
		if errors.Is(se, err) {
			return true
		}
	}
	return false
}

// Ret returns untyped nil if error list is empty.
func (e Errors) Ret() error {
	if len(e) > 0 {
		return e
	}
	return nil
}
