package corert

import (
	"errors"
	"testing"
)

func TestInvalidArgumentErrorUnwrap(t *testing.T) {
	err := invalidArgument("bad thing: %d", 42)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("invalidArgument() does not unwrap to ErrInvalidArgument")
	}
	if err.Error() != "bad thing: 42" {
		t.Fatalf("Error() = %q, want %q", err.Error(), "bad thing: 42")
	}
}

func TestInvalidArgumentErrorWithCause(t *testing.T) {
	cause := errors.New("underlying")
	err := &InvalidArgumentError{Cause: cause, Message: "wrapped"}
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("should unwrap to ErrInvalidArgument")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("should unwrap to the cause")
	}
}

func TestWrapErrorPreservesIs(t *testing.T) {
	wrapped := WrapError("doing something", ErrBrokenPipe)
	if !errors.Is(wrapped, ErrBrokenPipe) {
		t.Fatalf("WrapError() broke errors.Is chain")
	}
}

func TestAssertfPanicsOnFalse(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("assertf(false, ...) should panic")
		}
	}()
	assertf(false, "should not happen: %d", 1)
}

func TestAssertfNoPanicOnTrue(t *testing.T) {
	assertf(true, "fine")
}
