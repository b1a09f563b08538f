package core

import "errors"

// Sentinel errors returned by session operations. Callers match them with
// errors.Is; the returned error may carry extra context.
var (
	ErrNoImageLoaded        = errors.New("no image loaded")
	ErrInvalidCropRegion    = errors.New("invalid crop region")
	ErrMedianBudgetExceeded = errors.New("median selective edit already used in this session")
	ErrPreconditionNotMet   = errors.New("precondition not met")
	ErrInvalidResize        = errors.New("invalid resize dimensions")
	ErrInvalidParameter     = errors.New("invalid parameter")
	ErrUnsupportedImage     = errors.New("unsupported image")
)
