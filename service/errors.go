package service

import "errors"

var (
	// ErrNotFound covers unknown effect ids and missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInterval is a client input error: the requested or derived
	// clip interval falls outside the source video.
	ErrInvalidInterval = errors.New("invalid clip interval")
	// ErrEffectSynthesis means an effect asset could not be produced.
	ErrEffectSynthesis = errors.New("effect synthesis failed")
	// ErrComposition means the mixdown pipeline failed after validation.
	ErrComposition = errors.New("composition failed")
	// ErrRetrieval means an external video could not be fetched.
	ErrRetrieval = errors.New("video retrieval failed")
)
