package search

import (
	"sort"

	"github.com/graphfuse/graphfuse/pkg/types"
)

// Candidate is one fused candidate before hydration, carrying its raw and
// normalized per-signal scores.
type Candidate struct {
	ID    string
	Score types.ScoreBreakdown
}

// minMaxNormalize maps the values of scores into [0, 1]. When all values are
// equal (including the single-element case) every entry maps to 1.0, so a
// lone strong signal is never zeroed out by its own normalization.
func minMaxNormalize(scores map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(scores))
	if len(scores) == 0 {
		return out
	}

	first := true
	var min, max float64
	for _, v := range scores {
		if first {
			min, max = v, v
			first = false
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	if max == min {
		for id := range scores {
			out[id] = 1.0
		}
		return out
	}
	for id, v := range scores {
		out[id] = (v - min) / (max - min)
	}
	return out
}

// Fuse combines vector similarities and graph connectivity scores into one
// ranking. Each signal is min-max normalized independently over its own
// candidate set; a candidate absent from a signal scores 0 on it. The final
// score is alpha*normSim + beta*normConn, ordered descending with ties
// broken by normalized similarity descending, then id ascending, so equal
// inputs always produce identical output order.
func Fuse(similarities, connectivity map[string]float64, alpha, beta float64, topK int) []Candidate {
	normSim := minMaxNormalize(similarities)
	normConn := minMaxNormalize(connectivity)

	union := make(map[string]bool, len(normSim)+len(normConn))
	for id := range normSim {
		union[id] = true
	}
	for id := range normConn {
		union[id] = true
	}

	candidates := make([]Candidate, 0, len(union))
	for id := range union {
		sim := normSim[id]
		conn := normConn[id]
		candidates = append(candidates, Candidate{
			ID: id,
			Score: types.ScoreBreakdown{
				NormSim:          sim,
				NormConnectivity: conn,
				FinalScore:       alpha*sim + beta*conn,
			},
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score.FinalScore != b.Score.FinalScore {
			return a.Score.FinalScore > b.Score.FinalScore
		}
		if a.Score.NormSim != b.Score.NormSim {
			return a.Score.NormSim > b.Score.NormSim
		}
		return a.ID < b.ID
	})

	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates
}
