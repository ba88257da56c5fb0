package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")

	// Generation flow
	ErrMissingSecret   = errors.New("api key is required")
	ErrMissingSubject  = errors.New("subject is required")
	ErrBatchInProgress = errors.New("a generation run is already in progress")
	ErrNoImageData     = errors.New("provider returned no image data")
	ErrUnknownProvider = errors.New("unknown image provider")

	// Selection & export
	ErrNothingSelected = errors.New("no ready pages selected")
	ErrPageNotReady    = errors.New("page is not ready")

	ErrDispatchRejected = errors.New("retry could not be dispatched")
)
