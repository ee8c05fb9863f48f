package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Adapter creates database connections for one server dialect.
type Adapter interface {
	Connect(ctx context.Context, dsn string) (Conn, error)
	Name() string
	DefaultPort() int
}

// Conn is an active database connection. The schema cache calls the three
// List methods during a refresh; the command dispatcher calls Execute.
type Conn interface {
	// Introspection
	ListDatabases(ctx context.Context) ([]string, error)
	ListTables(ctx context.Context, db string) ([]string, error)
	ListColumns(ctx context.Context, db, table string) ([]string, error)

	// Query execution
	Execute(ctx context.Context, query string) (*Result, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Info
	DatabaseName() string
	AdapterName() string
}

// Result holds the outcome of a query execution.
type Result struct {
	Columns  []string
	Rows     [][]string
	RowCount int64
	Duration time.Duration
	IsSelect bool
	Message  string
}

// ErrorKind classifies a failure surfaced by a Conn.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindConnection
	KindPermission
)

func (k ErrorKind) String() string {
	switch k {
	case KindConnection:
		return "connection error"
	case KindPermission:
		return "permission denied"
	default:
		return "error"
	}
}

// Error wraps a driver error with its classified kind and the operation
// that produced it.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// WrapError classifies err and wraps it with the given operation name.
// A nil err returns nil; an already-wrapped error passes through.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: Classify(err), Op: op, Err: err}
}

// KindOf returns the classified kind of err.
func KindOf(err error) ErrorKind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Classify(err)
}

// Classify maps driver failures to an ErrorKind. Driver-specific
// classifiers registered via RegisterClassifier run first; network-level
// failures fall back to KindConnection.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	for _, fn := range classifiers {
		if k := fn(err); k != KindUnknown {
			return k
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindConnection
	}
	return KindUnknown
}

var classifiers []func(error) ErrorKind

// RegisterClassifier adds a driver-specific error classification function.
func RegisterClassifier(fn func(error) ErrorKind) {
	classifiers = append(classifiers, fn)
}

// Registry holds registered adapters by name.
var Registry = map[string]Adapter{}

// Register adds an adapter to the global registry.
func Register(a Adapter) {
	Registry[a.Name()] = a
}
