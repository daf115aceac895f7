package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotBound is returned when no module is published under a key.
	ErrNotBound = errors.New("capability not bound")

	// ErrWrongType is returned when the bound module does not implement the
	// requested capability.
	ErrWrongType = errors.New("bound module has wrong type")

	// ErrAlreadyEnabled is returned by Enable until Disable has run.
	ErrAlreadyEnabled = errors.New("manager already enabled")

	ErrMissingDependency = errors.New("missing dependency")
	ErrDependencyCycle   = errors.New("dependency cycle")
)

// Stage names the lifecycle hook that failed.
type Stage string

const (
	StageConfigure Stage = "configure"
	StageStart     Stage = "start"
	StageStop      Stage = "stop"
)

// LifecycleError reports a module hook failure and which stage it hit.
type LifecycleError struct {
	Stage  Stage
	Module string
	Err    error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("%s module %q: %v", e.Stage, e.Module, e.Err)
}

func (e *LifecycleError) Unwrap() error {
	return e.Err
}
