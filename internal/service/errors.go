package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indica texto ausente ou vazio na requisição.
	ErrInvalidInput = errors.New("text is required")

	// ErrUpstream casa com qualquer UpstreamError via errors.Is.
	ErrUpstream = errors.New("upstream call failed")

	ErrEmptyCompletion = errors.New("generation returned no text")
	ErrEmptyAudio      = errors.New("synthesis returned no audio")
)

// Stage identifica a etapa do pipeline que falhou.
type Stage string

const (
	StageGeneration Stage = "generation"
	StageSynthesis  Stage = "synthesis"
)

// UpstreamError envolve a falha de uma das APIs externas.
type UpstreamError struct {
	Stage Stage
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

func upstream(stage Stage, err error) error {
	return &UpstreamError{Stage: stage, Err: err}
}
