package adapter

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// timeoutErr satisfies net.Error.
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

type stubAdapter struct{ name string }

func (s stubAdapter) Connect(ctx context.Context, dsn string) (Conn, error) {
	return nil, errors.New("stub")
}
func (s stubAdapter) Name() string     { return s.name }
func (s stubAdapter) DefaultPort() int { return 0 }

// ---------------------------------------------------------------------------
// 1. Error wrapping
// ---------------------------------------------------------------------------

func TestWrapError_Nil(t *testing.T) {
	if err := WrapError("op", nil); err != nil {
		t.Errorf("WrapError(nil) = %v, want nil", err)
	}
}

func TestWrapError_Classifies(t *testing.T) {
	err := WrapError("list tables", timeoutErr{})

	var ae *Error
	if !errors.As(err, &ae) {
		t.Fatalf("WrapError did not produce *Error: %T", err)
	}
	if ae.Kind != KindConnection {
		t.Errorf("Kind = %v, want KindConnection", ae.Kind)
	}
	if ae.Op != "list tables" {
		t.Errorf("Op = %q, want %q", ae.Op, "list tables")
	}
}

func TestWrapError_PassesThroughWrapped(t *testing.T) {
	inner := &Error{Kind: KindPermission, Op: "first", Err: errors.New("denied")}
	outer := WrapError("second", inner)

	if outer != error(inner) {
		t.Error("an already-wrapped error should pass through unchanged")
	}
}

func TestWrapError_PassesThroughNested(t *testing.T) {
	inner := &Error{Kind: KindPermission, Op: "first", Err: errors.New("denied")}
	nested := fmt.Errorf("context: %w", inner)

	if got := WrapError("second", nested); got != nested {
		t.Error("a wrapped *Error anywhere in the chain should pass through")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("cause")
	err := &Error{Kind: KindUnknown, Op: "op", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
}

// ---------------------------------------------------------------------------
// 2. KindOf / Classify
// ---------------------------------------------------------------------------

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"wrapped_permission", &Error{Kind: KindPermission, Op: "x", Err: errors.New("denied")}, KindPermission},
		{"wrapped_connection", &Error{Kind: KindConnection, Op: "x", Err: errors.New("gone")}, KindConnection},
		{"net_error", timeoutErr{}, KindConnection},
		{"plain", errors.New("whatever"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify_RegisteredClassifierWins(t *testing.T) {
	sentinel := errors.New("quota exceeded")
	RegisterClassifier(func(err error) ErrorKind {
		if errors.Is(err, sentinel) {
			return KindPermission
		}
		return KindUnknown
	})

	if got := Classify(sentinel); got != KindPermission {
		t.Errorf("Classify = %v, want KindPermission from registered classifier", got)
	}
	if got := Classify(errors.New("other")); got != KindUnknown {
		t.Errorf("Classify = %v, want KindUnknown for unmatched error", got)
	}
}

func TestErrorKind_String(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want string
	}{
		{KindConnection, "connection error"},
		{KindPermission, "permission denied"},
		{KindUnknown, "error"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%v.String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// 3. Registry
// ---------------------------------------------------------------------------

func TestRegister(t *testing.T) {
	Register(stubAdapter{name: "stub"})

	a, ok := Registry["stub"]
	if !ok {
		t.Fatal("registered adapter not found")
	}
	if a.Name() != "stub" {
		t.Errorf("Name = %q, want %q", a.Name(), "stub")
	}
}
