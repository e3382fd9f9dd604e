package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapExternal(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"nil passes through", nil, nil},
		{"deadline is external", context.DeadlineExceeded, ErrExternalCall},
		{"not found", errors.New("record does not exist"), ErrNotFound},
		{"rate limit", errors.New("429 too many requests"), ErrRateLimited},
		{"duplicate", errors.New("message already sent"), ErrDuplicateEvent},
		{"already posted", errors.New("post already posted"), ErrDuplicateEvent},
		{"conflict", errors.New("resource already exists"), ErrConflict},
		{"invalid", errors.New("bad request: missing field"), ErrValidation},
		{"network", errors.New("connection refused"), ErrExternalCall},
		{"unknown defaults to external", errors.New("something odd"), ErrExternalCall},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MapExternal(tc.in)
			if tc.want == nil {
				if got != nil {
					t.Errorf("MapExternal = %v, want nil", got)
				}
				return
			}
			if !errors.Is(got, tc.want) {
				t.Errorf("MapExternal(%v) = %v, want category %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestMapExternalPreservesCancellation(t *testing.T) {
	wrapped := fmt.Errorf("call aborted: %w", context.Canceled)
	if got := MapExternal(wrapped); !errors.Is(got, context.Canceled) {
		t.Errorf("MapExternal = %v, want context.Canceled preserved", got)
	}
}

func TestHelperConstructors(t *testing.T) {
	cases := []struct {
		err  error
		want error
	}{
		{NotFound("x"), ErrNotFound},
		{Validation("x"), ErrValidation},
		{ExternalCall("x"), ErrExternalCall},
		{Storage("x"), ErrStorage},
		{Conflict("x"), ErrConflict},
		{Internal("x"), ErrInternal},
	}
	for _, tc := range cases {
		if !errors.Is(tc.err, tc.want) {
			t.Errorf("%v does not wrap %v", tc.err, tc.want)
		}
	}
}

func TestWrap(t *testing.T) {
	base := errors.New("boom")
	wrapped := Wrap(base, "reading record")
	if !errors.Is(wrapped, base) {
		t.Error("Wrap lost the cause")
	}
	if Wrap(nil, "x") != nil {
		t.Error("Wrap(nil) should be nil")
	}
}
