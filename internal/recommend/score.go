package recommend

// Score weights. Ingredient overlap dominates, semantic similarity refines,
// popularity breaks near-ties. Not runtime configuration.
const (
	overlapWeight    = 0.5
	semanticWeight   = 0.3
	popularityWeight = 0.2
)

// ScoreBreakdown carries the per-signal sub-scores alongside the combined
// ranking score for a single (query, candidate) pair.
type ScoreBreakdown struct {
	Overlap    float64 `json:"overlap"`
	Semantic   float64 `json:"semantic"`
	Popularity float64 `json:"popularity"`
	Combined   float64 `json:"combined"`
}

// CombineScores folds the three [0,1] sub-scores into one weighted score.
// For inputs in [0,1] the result is in [0,1].
func CombineScores(overlap, semantic, popularity float64) float64 {
	return overlapWeight*overlap + semanticWeight*semantic + popularityWeight*popularity
}
