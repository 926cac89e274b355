package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lemon07r/pampax"
	"github.com/lemon07r/pampax/internal/searcher"
)

var (
	flagLimit       int
	flagContextPack string
	flagReranker    string
	flagNoHybrid    bool
	flagNoSymbol    bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the indexed repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		core, err := pampax.Open(flagRoot, logger)
		if err != nil {
			return err
		}
		defer core.Close()

		scope := searcher.Scope{}
		if flagContextPack != "" {
			_, packScope, err := core.UseContextPack(flagContextPack)
			if err != nil {
				return err
			}
			scope = packScope
		}
		if flagReranker != "" {
			scope.Reranker = flagReranker
		}
		if cmd.Flags().Changed("no-hybrid") {
			hybrid := !flagNoHybrid
			scope.Hybrid = &hybrid
		}
		if cmd.Flags().Changed("no-symbol-boost") {
			symbolBoost := !flagNoSymbol
			scope.SymbolBoost = &symbolBoost
		}

		resp, err := core.Search(context.Background(), searcher.Request{
			Query:    args[0],
			Limit:    flagLimit,
			Provider: flagProvider,
			Scope:    scope,
		})
		if err != nil {
			return err
		}

		for _, r := range resp.Results {
			loc := r.ChunkID
			if r.File != nil {
				loc = fmt.Sprintf("%s:%d-%d", r.File.Path, r.File.StartLine, r.File.EndLine)
			}
			fmt.Printf("[%d] %.3f  %s  (%s)\n", r.Rank, r.Score, loc, r.SearchType)
		}
		fmt.Printf("\n%d results in %s (vector=%d bm25=%d hybrid=%v reranker=%s)\n",
			len(resp.Results), resp.Duration.Round(time.Millisecond), resp.VectorCount, resp.BM25Count, resp.UsedHybrid, resp.RerankerMode)
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&flagLimit, "limit", 10, "maximum number of results")
	searchCmd.Flags().StringVar(&flagProvider, "provider", "", "embedding provider override")
	searchCmd.Flags().StringVar(&flagContextPack, "context-pack", "", "apply a saved context pack as the base scope")
	searchCmd.Flags().StringVar(&flagReranker, "reranker", "", "reranker mode override: off, transformers, api")
	searchCmd.Flags().BoolVar(&flagNoHybrid, "no-hybrid", false, "disable BM25/RRF lexical fusion")
	searchCmd.Flags().BoolVar(&flagNoSymbol, "no-symbol-boost", false, "disable symbol-name boosting")
	rootCmd.AddCommand(searchCmd)
}
