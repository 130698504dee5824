package rag

import "fmt"

// ErrorKind classifies pipeline failures.
type ErrorKind int

const (
	// IndexUnavailable means the index failed to load.
	IndexUnavailable ErrorKind = iota
	// RetrievalFailure means a search call failed.
	RetrievalFailure
	// GenerationFailure means the completion call failed.
	GenerationFailure
	// GroundingViolation means generated codes are absent from context.
	GroundingViolation
)

func (k ErrorKind) String() string {
	switch k {
	case IndexUnavailable:
		return "index_unavailable"
	case RetrievalFailure:
		return "retrieval_failure"
	case GenerationFailure:
		return "generation_failure"
	case GroundingViolation:
		return "grounding_violation"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Action is what a path does with a failure.
type Action int

const (
	// Degrade absorbs the failure and returns reduced output.
	Degrade Action = iota
	// Propagate returns the failure to the caller.
	Propagate
)

// Policy is a per-path error table plus the retrieval variant the path uses.
type Policy struct {
	Name string
	// Fallback selects the live retriever (unfiltered retry); false selects the fail-loud scored variant.
	Fallback bool
	Actions  map[ErrorKind]Action
}

// Action returns the configured action; unknown kinds degrade.
func (p Policy) Action(k ErrorKind) Action {
	if a, ok := p.Actions[k]; ok {
		return a
	}
	return Degrade
}

// Live answers every request, possibly with reduced grounding.
var Live = Policy{
	Name:     "live",
	Fallback: true,
	Actions: map[ErrorKind]Action{
		IndexUnavailable:   Degrade,
		RetrievalFailure:   Degrade,
		GenerationFailure:  Degrade,
		GroundingViolation: Degrade,
	},
}

// Offline fails fast for batch and diagnostic use. Grounding violations are still only reported.
var Offline = Policy{
	Name:     "offline",
	Fallback: false,
	Actions: map[ErrorKind]Action{
		IndexUnavailable:   Propagate,
		RetrievalFailure:   Propagate,
		GenerationFailure:  Propagate,
		GroundingViolation: Degrade,
	},
}
