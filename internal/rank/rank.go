// Package rank scores embedding vectors by cosine similarity. Everything in
// here is a pure function: ranking the same candidates against the same query
// always yields the same ordered output.
package rank

import (
	"math"
	"sort"
)

type Candidate struct {
	ID     int64
	Vector []float32
}

type Match struct {
	ID    int64   `json:"id"`
	Score float64 `json:"score"`
}

// Validity is the outcome of checking a candidate vector before scoring.
type Validity int

const (
	Valid Validity = iota
	Missing
	DimMismatch
	ZeroNorm
)

// Validate reports whether a vector may take part in a similarity comparison
// of dimensionality dims. Invalid candidates are skipped, never scored.
func Validate(vec []float32, dims int) Validity {
	if len(vec) == 0 {
		return Missing
	}
	if len(vec) != dims {
		return DimMismatch
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return ZeroNorm
	}
	return Valid
}

// CosineSimilarity returns dot(a,b) / (|a|*|b|). Callers must validate both
// vectors first; mismatched or zero-norm input yields 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TopK linearly scans the candidates and returns the k best matches, ordered
// by descending score with ascending ID breaking ties. Candidates whose
// vector is missing, of the wrong dimensionality, or zero-norm are skipped.
func TopK(query []float32, candidates []Candidate, k int) []Match {
	if k <= 0 || Validate(query, len(query)) != Valid {
		return nil
	}
	dims := len(query)
	matches := make([]Match, 0, len(candidates))
	for _, cand := range candidates {
		if Validate(cand.Vector, dims) != Valid {
			continue
		}
		matches = append(matches, Match{
			ID:    cand.ID,
			Score: CosineSimilarity(query, cand.Vector),
		})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k]
}
