package service

import (
	"errors"
	"fmt"
	"math"
)

// ClipSelection is the chosen sub-interval of a source video.
type ClipSelection struct {
	StartTime  float64
	Duration   float64
	Confidence float64
}

// SelectionStrategy proposes an interesting interval for a video of the
// given total duration. Swapping in a content-aware detector only requires a
// new implementation; callers go through Selector either way.
type SelectionStrategy interface {
	Select(totalDuration float64) (ClipSelection, error)
}

// ThirdOffsetStrategy is the placeholder heuristic: start a third of the way
// in, run for the configured default duration or a third of the video,
// whichever is shorter. It does not analyze content, which the fixed 0.8
// confidence reflects.
type ThirdOffsetStrategy struct {
	DefaultClipDuration float64
}

const heuristicConfidence = 0.8

func (s ThirdOffsetStrategy) Select(totalDuration float64) (ClipSelection, error) {
	if totalDuration <= 0 {
		return ClipSelection{}, errors.Join(ErrInvalidInterval, fmt.Errorf("source duration must be positive, got %g", totalDuration))
	}
	return ClipSelection{
		StartTime:  totalDuration / 3,
		Duration:   math.Min(s.DefaultClipDuration, totalDuration/3),
		Confidence: heuristicConfidence,
	}, nil
}

// Selector resolves the interval to extract. Explicit bounds-valid requests
// pass through verbatim with confidence 1.0; missing fields are filled from
// the strategy and clamped to the source.
type Selector struct {
	strategy SelectionStrategy
}

func NewSelector(strategy SelectionStrategy) *Selector {
	return &Selector{strategy: strategy}
}

func (s *Selector) Select(totalDuration float64, requestedStart, requestedDuration *float64) (ClipSelection, error) {
	if requestedStart != nil && *requestedStart < 0 {
		return ClipSelection{}, errors.Join(ErrInvalidInterval, fmt.Errorf("start time must be non-negative, got %g", *requestedStart))
	}
	if requestedDuration != nil && *requestedDuration <= 0 {
		return ClipSelection{}, errors.Join(ErrInvalidInterval, fmt.Errorf("duration must be positive, got %g", *requestedDuration))
	}

	if requestedStart != nil && requestedDuration != nil {
		if *requestedStart+*requestedDuration > totalDuration {
			return ClipSelection{}, errors.Join(ErrInvalidInterval,
				fmt.Errorf("interval [%g, %g) exceeds source duration %g", *requestedStart, *requestedStart+*requestedDuration, totalDuration))
		}
		return ClipSelection{StartTime: *requestedStart, Duration: *requestedDuration, Confidence: 1.0}, nil
	}

	sel, err := s.strategy.Select(totalDuration)
	if err != nil {
		return ClipSelection{}, err
	}
	if requestedStart != nil {
		sel.StartTime = *requestedStart
	}
	if requestedDuration != nil {
		sel.Duration = *requestedDuration
	}
	if sel.StartTime+sel.Duration > totalDuration {
		sel.Duration = totalDuration - sel.StartTime
		if sel.Duration <= 0 {
			return ClipSelection{}, errors.Join(ErrInvalidInterval,
				fmt.Errorf("start time %g is beyond source duration %g", sel.StartTime, totalDuration))
		}
	}
	return sel, nil
}
