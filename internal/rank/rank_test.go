package rank

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity_SelfIsOne(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		vec := make([]float32, 16)
		for j := range vec {
			vec[j] = rng.Float32()*2 - 1
		}
		require.InDelta(t, 1.0, CosineSimilarity(vec, vec), 1e-9)
	}
}

func TestCosineSimilarity_Symmetry(t *testing.T) {
	a := []float32{0.3, -0.7, 0.2, 0.5}
	b := []float32{-0.1, 0.9, 0.4, -0.2}
	require.Equal(t, CosineSimilarity(a, b), CosineSimilarity(b, a))
}

func TestCosineSimilarity_Orthogonal(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{0, 1, 0}
	require.InDelta(t, 0.0, CosineSimilarity(a, b), 1e-9)
}

func TestCosineSimilarity_Opposite(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-1, -2, -3}
	require.InDelta(t, -1.0, CosineSimilarity(a, b), 1e-9)
}

func TestCosineSimilarity_DegenerateInput(t *testing.T) {
	require.Equal(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}))
	require.Equal(t, 0.0, CosineSimilarity([]float32{0, 0, 0}, []float32{1, 0, 0}))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		vec  []float32
		dims int
		want Validity
	}{
		{name: "valid", vec: []float32{1, 0, 0}, dims: 3, want: Valid},
		{name: "nil", vec: nil, dims: 3, want: Missing},
		{name: "empty", vec: []float32{}, dims: 3, want: Missing},
		{name: "short", vec: []float32{1, 0}, dims: 3, want: DimMismatch},
		{name: "long", vec: []float32{1, 0, 0, 0}, dims: 3, want: DimMismatch},
		{name: "zero norm", vec: []float32{0, 0, 0}, dims: 3, want: ZeroNorm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Validate(tt.vec, tt.dims))
		})
	}
}

func TestTopK_RanksByScore(t *testing.T) {
	query := []float32{1, 0, 0}
	candidates := []Candidate{
		{ID: 1, Vector: []float32{1, 0, 0}},
		{ID: 2, Vector: []float32{0, 1, 0}},
		{ID: 3, Vector: []float32{0.9, 0.1, 0}},
	}
	matches := TopK(query, candidates, 2)
	require.Len(t, matches, 2)
	require.Equal(t, int64(1), matches[0].ID)
	require.InDelta(t, 1.0, matches[0].Score, 1e-9)
	require.Equal(t, int64(3), matches[1].ID)
	require.InDelta(t, 0.9939, matches[1].Score, 1e-3)
}

func TestTopK_SkipsInvalidCandidates(t *testing.T) {
	query := []float32{1, 0, 0}
	candidates := []Candidate{
		{ID: 1, Vector: nil},
		{ID: 2, Vector: []float32{0, 0, 0}},
		{ID: 3, Vector: []float32{1, 0}},
		{ID: 4, Vector: []float32{0.5, 0.5, 0}},
	}
	matches := TopK(query, candidates, 10)
	require.Len(t, matches, 1)
	require.Equal(t, int64(4), matches[0].ID)
}

func TestTopK_TruncatesToK(t *testing.T) {
	query := []float32{1, 1}
	var candidates []Candidate
	for i := int64(1); i <= 20; i++ {
		candidates = append(candidates, Candidate{ID: i, Vector: []float32{float32(i), 1}})
	}
	matches := TopK(query, candidates, 5)
	require.Len(t, matches, 5)
}

func TestTopK_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	query := []float32{0.2, -0.4, 0.6, 0.1}
	var candidates []Candidate
	for i := int64(1); i <= 50; i++ {
		vec := make([]float32, 4)
		for j := range vec {
			vec[j] = rng.Float32()*2 - 1
		}
		candidates = append(candidates, Candidate{ID: i, Vector: vec})
	}
	first := TopK(query, candidates, 10)
	second := TopK(query, candidates, 10)
	require.Equal(t, first, second)
}

func TestTopK_TieBreakByID(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{ID: 9, Vector: []float32{2, 0}},
		{ID: 3, Vector: []float32{5, 0}},
		{ID: 7, Vector: []float32{1, 0}},
	}
	// All three are colinear with the query, so every score is 1.
	matches := TopK(query, candidates, 3)
	require.Equal(t, []int64{3, 7, 9}, []int64{matches[0].ID, matches[1].ID, matches[2].ID})
}

func TestTopK_EmptyInput(t *testing.T) {
	require.Nil(t, TopK(nil, []Candidate{{ID: 1, Vector: []float32{1}}}, 3))
	require.Empty(t, TopK([]float32{1, 0}, nil, 3))
	require.Nil(t, TopK([]float32{1, 0}, []Candidate{{ID: 1, Vector: []float32{1, 0}}}, 0))
}

func TestTopK_ScoreRange(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	query := []float32{0.5, -0.5, 0.5}
	var candidates []Candidate
	for i := int64(1); i <= 100; i++ {
		vec := make([]float32, 3)
		for j := range vec {
			vec[j] = rng.Float32()*2 - 1
		}
		candidates = append(candidates, Candidate{ID: i, Vector: vec})
	}
	for _, m := range TopK(query, candidates, 100) {
		require.False(t, math.IsNaN(m.Score))
		require.GreaterOrEqual(t, m.Score, -1.0-1e-9)
		require.LessOrEqual(t, m.Score, 1.0+1e-9)
	}
}
