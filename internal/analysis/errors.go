package analysis

import (
	"errors"
	"fmt"
)

type Stage string

const (
	StageCatalog  Stage = "catalog"
	StageLocate   Stage = "locate"
	StageExtract  Stage = "extract"
	StageSnapshot Stage = "snapshot"
	StageEncode   Stage = "encode"
	StagePrompt   Stage = "prompt"
	StageAnalyze  Stage = "analyze"
)

var (
	ErrEmptySnapshot = errors.New("no image data provided")
	// ErrPersist marks sidecar or history failures after a successful
	// analysis. It is only ever reported on an Outcome.
	ErrPersist = errors.New("failed to persist analysis")
)

// StageError reports which pipeline step failed. Nothing is persisted when
// one is returned.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
