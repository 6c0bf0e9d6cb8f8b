package graphfuse

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/graphfuse/graphfuse/pkg/config"
	"github.com/graphfuse/graphfuse/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the indexed corpus",
	Long: `Search the indexed corpus. The default hybrid mode fuses vector
similarity and graph connectivity; vector and graph modes use a single
signal.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var (
	searchMode     string
	searchTopK     int
	searchAlpha    float64
	searchBeta     float64
	searchDecay    float64
	searchDepth    int
	searchDegraded bool
)

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVar(&searchMode, "mode", "hybrid", "Search mode (vector, graph, hybrid)")
	searchCmd.Flags().IntVar(&searchTopK, "top-k", 0, "Maximum results (0 uses the configured default)")
	searchCmd.Flags().Float64Var(&searchAlpha, "alpha", -1, "Vector similarity weight")
	searchCmd.Flags().Float64Var(&searchBeta, "beta", -1, "Graph connectivity weight")
	searchCmd.Flags().Float64Var(&searchDecay, "decay", -1, "Per-hop traversal decay")
	searchCmd.Flags().IntVar(&searchDepth, "depth", 0, "Maximum traversal depth")
	searchCmd.Flags().BoolVar(&searchDegraded, "allow-degraded", false, "Return partial results when a branch fails")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := buildLogger(cfg)
	engine, err := buildEngine(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}
	ctx := context.Background()
	defer engine.Close(ctx)

	searchConfig := &types.SearchConfig{
		Mode:                types.SearchMode(searchMode),
		TopK:                cfg.Search.TopK,
		Alpha:               cfg.Search.Alpha,
		Beta:                cfg.Search.Beta,
		Decay:               cfg.Search.Decay,
		MaxDepth:            cfg.Search.MaxDepth,
		CandidateMultiplier: cfg.Search.CandidateMultiplier,
		AllowDegraded:       searchDegraded,
	}
	if searchTopK > 0 {
		searchConfig.TopK = searchTopK
	}
	if searchAlpha >= 0 {
		searchConfig.Alpha = searchAlpha
	}
	if searchBeta >= 0 {
		searchConfig.Beta = searchBeta
	}
	if searchDecay > 0 {
		searchConfig.Decay = searchDecay
	}
	if searchDepth > 0 {
		searchConfig.MaxDepth = searchDepth
	}

	results, err := engine.Search(ctx, query, searchConfig)
	if err != nil {
		return err
	}

	if results.Degraded {
		fmt.Printf("warning: %s branch failed, results are degraded\n\n", results.DegradedBranch)
	}
	if len(results.Results) == 0 {
		fmt.Println("no results")
		return nil
	}

	for i, r := range results.Results {
		fmt.Printf("%2d. [%s] %s  score=%.4f (sim=%.4f conn=%.4f)\n",
			i+1, r.Label, headline(r), r.Score.FinalScore, r.Score.NormSim, r.Score.NormConnectivity)
		if r.Text != "" {
			fmt.Printf("    %s\n", snippet(r.Text, 160))
		}
	}
	return nil
}

func headline(r types.SearchResult) string {
	if r.Title != "" {
		return r.Title
	}
	return r.ID
}

func snippet(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}
