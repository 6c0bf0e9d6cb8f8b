package types

// SearchMode selects which ranking signals a search uses.
type SearchMode string

const (
	SearchModeVector SearchMode = "vector"
	SearchModeGraph  SearchMode = "graph"
	SearchModeHybrid SearchMode = "hybrid"
)

// SearchConfig holds configuration for one search request. Alpha and Beta
// are the fusion weights for the normalized vector and graph scores; they
// are not required to sum to 1.
type SearchConfig struct {
	Mode SearchMode `json:"mode"`
	// TopK is the maximum number of results to return. Must be positive.
	TopK int `json:"top_k"`
	// Alpha weights the normalized vector similarity.
	Alpha float64 `json:"alpha"`
	// Beta weights the normalized graph connectivity.
	Beta float64 `json:"beta"`
	// Decay is the per-hop attenuation applied during graph traversal.
	// Must lie in (0, 1).
	Decay float64 `json:"decay"`
	// MaxDepth bounds graph traversal from the seed nodes. Must be >= 1.
	MaxDepth int `json:"max_depth"`
	// CandidateMultiplier widens the vector candidate pool before fusion:
	// the vector branch fetches TopK * CandidateMultiplier hits.
	CandidateMultiplier int `json:"candidate_multiplier"`
	// AllowDegraded permits returning vector-only results when the graph
	// branch fails. Degradation is always signaled on the results, never
	// silent.
	AllowDegraded bool `json:"allow_degraded"`
}

// DefaultSearchConfig returns the suggested defaults. Alpha, Beta, Decay and
// MaxDepth are configuration, not constants: callers and the config file may
// override all of them.
func DefaultSearchConfig() *SearchConfig {
	return &SearchConfig{
		Mode:                SearchModeHybrid,
		TopK:                10,
		Alpha:               0.7,
		Beta:                0.3,
		Decay:               0.5,
		MaxDepth:            2,
		CandidateMultiplier: 3,
	}
}

// Validate checks the config for caller errors.
func (c *SearchConfig) Validate() error {
	switch c.Mode {
	case SearchModeVector, SearchModeGraph, SearchModeHybrid:
	default:
		return NewValidationError("mode", "must be one of vector, graph, hybrid")
	}
	if c.TopK <= 0 {
		return NewValidationError("top_k", "must be positive")
	}
	if c.Alpha < 0 || c.Beta < 0 {
		return NewValidationError("weights", "alpha and beta must be non-negative")
	}
	if c.Alpha == 0 && c.Beta == 0 {
		return NewValidationError("weights", "alpha and beta cannot both be zero")
	}
	if c.Decay <= 0 || c.Decay >= 1 {
		return NewValidationError("decay", "must lie in (0, 1)")
	}
	if c.MaxDepth < 1 {
		return NewValidationError("max_depth", "must be at least 1")
	}
	if c.CandidateMultiplier < 1 {
		return NewValidationError("candidate_multiplier", "must be at least 1")
	}
	return nil
}

// ScoreBreakdown explains how one result's final score was assembled.
type ScoreBreakdown struct {
	NormSim          float64 `json:"norm_sim"`
	NormConnectivity float64 `json:"norm_connectivity"`
	FinalScore       float64 `json:"final_score"`
}

// SearchResult is one ranked candidate with its score breakdown.
type SearchResult struct {
	ID    string         `json:"id"`
	Label NodeLabel      `json:"label"`
	Title string         `json:"title,omitempty"`
	Text  string         `json:"text,omitempty"`
	Score ScoreBreakdown `json:"score"`
}

// SearchResults is the ordered outcome of one search request.
type SearchResults struct {
	Query   string         `json:"query"`
	Mode    SearchMode     `json:"mode"`
	Results []SearchResult `json:"results"`
	// Degraded is set when a branch failed and AllowDegraded let the
	// request complete on the remaining signal.
	Degraded bool `json:"degraded,omitempty"`
	// DegradedBranch names the branch that failed when Degraded is set.
	DegradedBranch string `json:"degraded_branch,omitempty"`
}
