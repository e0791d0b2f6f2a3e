package util

import "errors"

var (
	ErrNoExtractableText = errors.New("no extractable text found in PDF")

	ErrRateLimited     = errors.New("provider rate limited")
	ErrBlocked         = errors.New("response blocked by safety filter")
	ErrMalformedOutput = errors.New("model output missing required structure")
	ErrTransient       = errors.New("transient provider error")
	ErrPermanent       = errors.New("permanent provider error")
	ErrContextTooLong  = errors.New("context too long")

	ErrNotFound = errors.New("not found")
)
