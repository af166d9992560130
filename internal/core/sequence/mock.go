// Package sequence provides domain contracts for document auto-numbering.
package sequence

import (
	"context"
	"time"
)

// MockAllocator is a test implementation of Allocator.
// Use in unit tests to avoid database dependencies.
type MockAllocator struct {
	NextFunc    func(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)
	SetNextFunc func(ctx context.Context, cfg Config, period time.Time, value int64) error
}

// Next implements Allocator.
func (m *MockAllocator) Next(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, cfg, opts, period)
	}
	// Default: return predictable mock number
	return "MOCK-2026-00001", nil
}

// SetNext implements Allocator.
func (m *MockAllocator) SetNext(ctx context.Context, cfg Config, period time.Time, value int64) error {
	if m.SetNextFunc != nil {
		return m.SetNextFunc(ctx, cfg, period, value)
	}
	return nil
}

// Ensure compile-time interface compliance.
var _ Allocator = (*MockAllocator)(nil)
