package octree

import (
	"fmt"
	"math"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/octree/geom"
)

const (
	defaultIndexName = "default"

	// minSizeDivisions is how many times the initial size is halved to get
	// the minimum node size when none usable is given.
	minSizeDivisions = 16

	// fallbackMinSize is used when the initial size cannot give one.
	fallbackMinSize = 0.001
)

type options struct {
	name string
}

// Option configures a tree at construction.
type Option func(*options)

// WithName sets the name the tree reports its metrics under.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

func newOptions(opts []Option) options {
	o := options{
		name: defaultIndexName,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// clampMinSize keeps the minimum node size positive and at or below the
// initial size. Without a positive minimum, coincident elements would split
// nodes forever.
func clampMinSize(name string, initialSize, minSize float32) float32 {
	switch {
	case !(minSize > 0):
		adjusted := initialSize / (1 << minSizeDivisions)
		if !(adjusted > 0) || math.IsInf(float64(adjusted), 0) {
			adjusted = fallbackMinSize
		}

		// Formatted since NaN and Inf do not encode as JSON numbers.
		logs.WithTag("index", name).
			WithTag("min_size", fmt.Sprint(minSize)).
			WithTag("initial_size", fmt.Sprint(initialSize)).
			WithTag("adjusted_min_size", adjusted).
			Warn("minimum node size must be positive, adjusted")
		return adjusted

	case minSize > initialSize && initialSize > 0:
		logs.WithTag("index", name).
			WithTag("min_size", minSize).
			WithTag("initial_size", initialSize).
			Warn("minimum node size must be at most the initial world size, adjusted to the initial size")
		return initialSize

	default:
		return minSize
	}
}

// clampLooseness keeps looseness within [1, 2]. NaN becomes 1.
func clampLooseness(name string, looseness float32) float32 {
	if looseness != looseness {
		logs.WithTag("index", name).
			WithTag("looseness", "NaN").
			Warn("looseness is not a number, adjusted to 1")
		return 1
	}
	return geom.Clamp(looseness, 1, 2)
}
