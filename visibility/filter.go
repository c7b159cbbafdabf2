// Package visibility derives the display subset of the incident feed. The
// filter is a pure function over a store snapshot: recomputing it on every
// filter-parameter change is the intended usage.
package visibility

import (
	"iter"
	"time"

	"go-floodline/types"
)

const (
	minWindowHours = 1
	maxWindowHours = 24
)

// Options are the map/feed filter controls.
type Options struct {
	// WindowHours is clamped to [1, 24].
	WindowHours int
	// Categories empty means all categories.
	Categories []types.Category
	// VerifiedOnly keeps only verified-true incidents.
	VerifiedOnly bool
}

// Visible yields the incidents inside the time window that pass the category
// and verification filters, preserving the input (newest-first) order. The
// sequence is lazy and restartable; iterating it twice walks the same
// snapshot twice.
func Visible(incidents []*types.Incident, now time.Time, opts Options) iter.Seq[*types.Incident] {
	window := time.Duration(clampWindow(opts.WindowHours)) * time.Hour
	cats := categorySet(opts.Categories)

	return func(yield func(*types.Incident) bool) {
		for _, inc := range incidents {
			if now.Sub(inc.CreatedAt) > window {
				continue
			}
			if len(cats) > 0 && !cats[inc.Category] {
				continue
			}
			if opts.VerifiedOnly && inc.Status != types.VerifiedTrue {
				continue
			}
			if !yield(inc) {
				return
			}
		}
	}
}

// Collect materializes the sequence for callers that need a slice.
func Collect(seq iter.Seq[*types.Incident]) []*types.Incident {
	out := []*types.Incident{}
	for inc := range seq {
		out = append(out, inc)
	}
	return out
}

func clampWindow(hours int) int {
	if hours < minWindowHours {
		return minWindowHours
	}
	if hours > maxWindowHours {
		return maxWindowHours
	}
	return hours
}

func categorySet(cats []types.Category) map[types.Category]bool {
	set := make(map[types.Category]bool, len(cats))
	for _, c := range cats {
		set[c] = true
	}
	return set
}
