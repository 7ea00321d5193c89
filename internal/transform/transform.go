// Package transform runs user scripts that rewrite a whole record set.
//
// A transform is atomic: it either returns a complete replacement record
// sequence or fails, and callers never apply part of a result.
package transform

import (
	"context"
	"errors"

	"loglens/internal/record"
)

var (
	// ErrInvalidResult means the script returned something that is not a
	// list of strings and objects.
	ErrInvalidResult = errors.New("transform returned an invalid result")

	// ErrForbiddenImport means the script imports a package outside the
	// allowed set.
	ErrForbiddenImport = errors.New("forbidden import")

	// ErrMissingEntryPoint means the script does not define Transform
	// with the expected signature.
	ErrMissingEntryPoint = errors.New("script does not define Transform")
)

// Executor applies a script to records.
type Executor interface {
	Execute(ctx context.Context, records []record.Record, script string) ([]record.Record, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, records []record.Record, script string) ([]record.Record, error)

func (f ExecutorFunc) Execute(ctx context.Context, records []record.Record, script string) ([]record.Record, error) {
	return f(ctx, records, script)
}
