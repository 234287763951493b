package vecdist_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aetherdb/aetherdb/internal/vecdist"
)

func TestParseKind(t *testing.T) {
	cases := map[string]vecdist.Kind{
		"cosine": vecdist.Cosine,
		"Cosine": vecdist.Cosine,
		"l2":     vecdist.L2,
		"L2":     vecdist.L2,
		"dot":    vecdist.Dot,
		"DOT":    vecdist.Dot,
	}
	for s, want := range cases {
		got, err := vecdist.ParseKind(s)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := vecdist.ParseKind("manhattan")
	require.Error(t, err)
}

func TestDistanceIdenticalVectorsIsClosest(t *testing.T) {
	a := []float32{1, 2, 3}
	for _, k := range []vecdist.Kind{vecdist.Cosine, vecdist.L2} {
		require.InDelta(t, 0.0, vecdist.Distance(k, a, a), 1e-6)
	}
}

func TestL2DistanceKnownValue(t *testing.T) {
	a := []float32{0, 0}
	b := []float32{3, 4}
	require.InDelta(t, 5.0, vecdist.Distance(vecdist.L2, a, b), 1e-6)
}

func TestCosineOrthogonalVectors(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	require.InDelta(t, 1.0, vecdist.Distance(vecdist.Cosine, a, b), 1e-6)
}

func TestCosineIdenticalDirectionIsZero(t *testing.T) {
	a := []float32{2, 2}
	b := []float32{1, 1}
	require.InDelta(t, 0.0, vecdist.Distance(vecdist.Cosine, a, b), 1e-6)
}
