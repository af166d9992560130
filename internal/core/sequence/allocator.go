// Package sequence provides domain contracts for document auto-numbering.
// Implementations live in infrastructure layer.
package sequence

import (
	"context"
	"time"
)

// Allocator generates sequential document numbers.
// This is the domain contract - implementations live in infrastructure layer.
//
// Allocation scope is (tenant, prefix, year); the year comes from the
// document's business date, not the wall clock, so a January backfill of
// December documents draws from the December counter.
type Allocator interface {
	// Next generates the next document number.
	// Pattern: PREFIX-YEAR-XXXXX (e.g., MOV-2026-00001)
	//
	// Supports Strict (counter row per number) and Cached (in-memory range)
	// strategies.
	Next(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNext sets the next number value (for migration purposes).
	SetNext(ctx context.Context, cfg Config, period time.Time, value int64) error
}
