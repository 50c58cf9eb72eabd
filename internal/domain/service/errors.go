package service

import (
	"errors"
)

// Sentinel errors for the fraud engine public surface.
var (
	// ErrInvalidProposal marks a malformed trade proposal; no partial analysis is attempted.
	ErrInvalidProposal = errors.New("invalid trade proposal")

	// ErrDataUnavailable marks a collaborator query failure; the affected detector
	// is skipped, recorded in AnalysisErrors and contributes a neutral score.
	ErrDataUnavailable = errors.New("trade history data unavailable")
)
