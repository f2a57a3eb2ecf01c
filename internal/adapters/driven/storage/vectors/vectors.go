// Package vectors holds the similarity and encoding helpers shared by the
// vector index adapters that score records in Go.
package vectors

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

// CosineSimilarity returns the cosine of the angle between a and b.
// Mismatched lengths and zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}

// Rank sorts scored records by descending similarity, breaking ties by
// ascending natural key, and truncates to topK.
func Rank(scored []domain.ScoredRecord, topK int) []domain.ScoredRecord {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Similarity != scored[j].Similarity {
			return scored[i].Similarity > scored[j].Similarity
		}
		return scored[i].Record.Key.Less(scored[j].Record.Key)
	})
	if topK >= 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

// Encode converts a []float32 to little-endian bytes for storage.
func Encode(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Decode converts bytes written by Encode back to []float32.
func Decode(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
