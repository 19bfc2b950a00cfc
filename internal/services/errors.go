package services

import "errors"

// Error taxonomy for the generation API. Handlers map these to HTTP codes;
// wrap with fmt.Errorf("...: %w", Err...) so errors.Is keeps working.
var (
	// Resource absent or caller lacks ownership. Deliberately merged so the
	// API never reveals whether a foreign resource exists.
	ErrNotFoundOrForbidden = errors.New("not found or forbidden")

	// A text provider returned no usable content.
	ErrEmptyGeneration = errors.New("provider returned no usable content")

	// Any external provider call failure.
	ErrProvider = errors.New("provider call failed")

	// Storage commit failure; the client must re-request generation.
	ErrPersistence = errors.New("persistence failed")

	// Malformed request: bad index, bad id, slot outside the grid.
	ErrValidation = errors.New("invalid request")

	// Another pipeline run currently holds this scene slot.
	ErrSlotBusy = errors.New("scene slot is already being generated")
)
