package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestOpErrorWrapUnwrap(t *testing.T) {
	root := errors.New("root")
	err := &OpError{
		Op:   "pricecache.load",
		Kind: KindExecution,
		Path: "cache.db",
		Err:  root,
	}

	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is to match cause")
	}

	var got *OpError
	if !errors.As(fmt.Errorf("outer: %w", err), &got) {
		t.Fatalf("expected errors.As to match OpError")
	}
	if got.Kind != KindExecution {
		t.Fatalf("expected kind %s", KindExecution)
	}

	msg := err.Error()
	for _, want := range []string{"pricecache.load", "execution", "path=cache.db", "root"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in %q", want, msg)
		}
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &OpError{Op: "x", Kind: KindInvalidConfig})

	if !IsKind(err, KindInvalidConfig) {
		t.Fatalf("expected IsKind to match")
	}
	if IsKind(err, KindNotFound) {
		t.Fatalf("expected IsKind to reject other kinds")
	}
	if IsKind(errors.New("plain"), KindInvalidConfig) {
		t.Fatalf("expected IsKind false for plain errors")
	}
}

func TestNilOpError(t *testing.T) {
	var e *OpError
	if e.Error() != "<nil>" {
		t.Fatalf("expected <nil>, got %q", e.Error())
	}
	if e.Unwrap() != nil {
		t.Fatalf("expected nil unwrap")
	}
}

func TestKindOfAndSentinelFallback(t *testing.T) {
	bare := &OpError{Op: "runstore.load", Kind: KindNotFound}
	if !errors.Is(bare, ErrNotFound) {
		t.Fatalf("expected bare not_found OpError to match ErrNotFound")
	}
	if errors.Is(bare, ErrInvalidConfig) {
		t.Fatalf("unexpected match on ErrInvalidConfig")
	}

	withCause := &OpError{Op: "x", Kind: KindNotFound, Err: errors.New("gone")}
	if errors.Is(withCause, ErrNotFound) {
		t.Fatalf("explicit cause must win over the kind sentinel")
	}

	if got := KindOf(fmt.Errorf("outer: %w", bare)); got != KindNotFound {
		t.Fatalf("KindOf() = %q", got)
	}
	if got := KindOf(errors.New("plain")); got != "" {
		t.Fatalf("KindOf(plain) = %q", got)
	}
	if IsKind(nil, "") {
		t.Fatalf("IsKind(nil) must be false")
	}
}
