// Package vecdist provides the distance kernels the Flat memtable's Search
// ranks candidates by. Kernels are built on gonum/floats rather than
// hand-rolled loops, matching how the pack's numeric-heavy repos lean on
// gonum for vector math.
package vecdist

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Kind identifies a distance/similarity function. Lower Distance() values
// always mean "more similar", even for similarity measures like cosine and
// dot, which are converted to a distance by negation/subtraction.
type Kind int

const (
	// Cosine ranks by 1 - cosine_similarity.
	Cosine Kind = iota
	// L2 ranks by Euclidean distance.
	L2
	// Dot ranks by negative dot product (higher dot product == closer).
	Dot
)

// ParseKind parses a case-insensitive distance name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "cosine":
		return Cosine, nil
	case "l2":
		return L2, nil
	case "dot":
		return Dot, nil
	default:
		return 0, fmt.Errorf("vecdist: unknown distance type %q", s)
	}
}

func (k Kind) String() string {
	switch k {
	case Cosine:
		return "cosine"
	case L2:
		return "l2"
	case Dot:
		return "dot"
	default:
		return "unknown"
	}
}

// Distance computes the distance between a and b under k. Smaller is closer.
func Distance(k Kind, a, b []float32) float64 {
	switch k {
	case L2:
		return l2(a, b)
	case Dot:
		return -dot(a, b)
	default:
		return 1 - cosine(a, b)
	}
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

func l2(a, b []float32) float64 {
	fa, fb := toFloat64(a), toFloat64(b)
	diff := make([]float64, len(fa))
	copy(diff, fa)
	floats.Sub(diff, fb)
	return floats.Norm(diff, 2)
}

func dot(a, b []float32) float64 {
	return floats.Dot(toFloat64(a), toFloat64(b))
}

func cosine(a, b []float32) float64 {
	fa, fb := toFloat64(a), toFloat64(b)
	denom := floats.Norm(fa, 2) * floats.Norm(fb, 2)
	if denom == 0 {
		return 0
	}
	return floats.Dot(fa, fb) / denom
}
