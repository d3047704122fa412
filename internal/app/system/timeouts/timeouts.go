// Package timeouts holds the context deadlines handlers attach to
// their database work, so a slow query surfaces as a bounded failure
// instead of a hung request.
//
// Pick the smallest bucket that fits the operation:
//   - Ping: connectivity checks
//   - Short: single-document reads
//   - Medium: paginated lists and simple writes
//   - Long: writes touching several collections
//   - Batch: CSV transfer and bulk import endpoints
package timeouts

import "time"

const (
	ping   = 2 * time.Second
	short  = 5 * time.Second
	medium = 10 * time.Second
	long   = 30 * time.Second
	batch  = 60 * time.Second
)

// Ping is the deadline for health-check database pings.
func Ping() time.Duration { return ping }

// Short is the deadline for single-document lookups.
func Short() time.Duration { return short }

// Medium is the deadline for list queries and ordinary mutations.
func Medium() time.Duration { return medium }

// Long is the deadline for multi-collection mutations such as invite
// acceptance or recurring-task completion.
func Long() time.Duration { return long }

// Batch is the deadline for bulk work such as CSV import/export and
// provider sync.
func Batch() time.Duration { return batch }
