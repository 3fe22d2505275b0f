package service

import "errors"

// Pipeline error kinds. Every error leaving a pipeline step wraps exactly
// one of these so the message boundary can pick the right reply.
var (
	ErrRetrieval     = errors.New("attachment retrieval failed")
	ErrExtraction    = errors.New("no readable text")
	ErrOCRProcessing = errors.New("structured extraction failed")
	ErrExecution     = errors.New("query execution failed")
	ErrValidation    = errors.New("persistence validation failed")
)
