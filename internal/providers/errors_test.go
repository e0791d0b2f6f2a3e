package providers

import (
	"errors"
	"testing"
)

func TestClassifyError(t *testing.T) {
	cases := map[string]ErrorType{
		"gemini generate error 429: RESOURCE_EXHAUSTED": ErrorRate,
		"insufficient_quota":             ErrorQuota,
		"gemini response blocked: SAFETY": ErrorBlocked,
		"context too long":               ErrorContext,
		"timeout":                        ErrorTransient,
		"bad request":                    ErrorPermanent,
	}
	for msg, want := range cases {
		if got := ClassifyError(errors.New(msg)); got != want {
			t.Fatalf("classify %q: got %s want %s", msg, got, want)
		}
	}
}

func TestRetryableOnlyRate(t *testing.T) {
	if !Retryable(ErrorRate) {
		t.Fatalf("rate errors must be retryable")
	}
	for _, et := range []ErrorType{ErrorQuota, ErrorBlocked, ErrorContext, ErrorTransient, ErrorPermanent} {
		if Retryable(et) {
			t.Fatalf("%s must not be retryable", et)
		}
	}
}
