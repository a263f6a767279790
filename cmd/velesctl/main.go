// Package main provides velesctl, VelesDB's admin CLI: create and
// inspect collections, load and query points, and run maintenance
// operations without writing a Go program against pkg/collection.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cyberlife-coder/velesdb/pkg/collection"
	"github.com/cyberlife-coder/velesdb/pkg/config"
	"github.com/cyberlife-coder/velesdb/pkg/distance"
	"github.com/cyberlife-coder/velesdb/pkg/guard"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "velesctl",
		Short: "velesctl - VelesDB collection administration",
		Long: `velesctl creates, inspects, and queries VelesDB collections from the
command line: the same operations an embedding application reaches
through pkg/collection, exposed as subcommands for scripting and
operational use.`,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (optional)")

	rootCmd.AddCommand(
		versionCmd(),
		createCmd(),
		upsertCmd(),
		getCmd(),
		deleteCmd(),
		searchCmd(),
		queryCmd(),
		analyzeCmd(),
		compactCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "velesctl:", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("velesctl v%s (%s)\n", version, commit)
		},
	}
}

func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}

func collectionOptions(cfg config.Config) collection.Options {
	opts := collection.DefaultOptions()
	opts.QueryCacheSize = cfg.Query.CacheSize
	opts.QueryCacheTTL = cfg.Query.CacheTTL
	opts.RateLimit = guard.RateLimit{
		RatePerSecond: cfg.Query.RateLimitPerSecond,
		Burst:         cfg.Query.RateLimitBurst,
	}
	return opts
}

func createCmd() *cobra.Command {
	var dim int
	var metric string
	cmd := &cobra.Command{
		Use:   "create <path>",
		Short: "Create a new collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			m, ok := distance.ParseMetric(metric)
			if !ok {
				return fmt.Errorf("unknown metric %q", metric)
			}
			c, err := collection.Create(args[0], dim, m, collectionOptions(cfg))
			if err != nil {
				return err
			}
			defer c.Close()
			fmt.Printf("created collection at %s (dim=%d, metric=%s)\n", args[0], dim, m)
			return nil
		},
	}
	cmd.Flags().IntVar(&dim, "dim", 0, "vector dimension (0 for metadata-only)")
	cmd.Flags().StringVar(&metric, "metric", "cosine", "distance metric (cosine, euclidean, dot, hamming, jaccard)")
	return cmd
}

func upsertCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "upsert <path>",
		Short: "Upsert points from a JSON file",
		Long:  `Reads a JSON array of {"id": N, "vector": [...], "payload": {...}} objects from --file and upserts them.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, close, err := openCollection(args[0])
			if err != nil {
				return err
			}
			defer close()

			raw, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var docs []pointDoc
			if err := json.Unmarshal(raw, &docs); err != nil {
				return fmt.Errorf("parse %s: %w", file, err)
			}
			points := make([]collection.Point, len(docs))
			for i, d := range docs {
				points[i] = collection.Point{ID: d.ID, Vector: d.Vector, Payload: d.Payload}
			}
			n, failedID, err := c.UpsertBulk(points)
			if err != nil {
				return fmt.Errorf("upsert failed at point %d after %d succeeded: %w", failedID, n, err)
			}
			fmt.Printf("upserted %d point(s)\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to a JSON file of points")
	cmd.MarkFlagRequired("file")
	return cmd
}

type pointDoc struct {
	ID      uint64         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

func getCmd() *cobra.Command {
	var ids []int64
	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Fetch points by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, close, err := openCollection(args[0])
			if err != nil {
				return err
			}
			defer close()
			u := make([]uint64, len(ids))
			for i, id := range ids {
				u[i] = uint64(id)
			}
			return printJSON(c.Get(u))
		},
	}
	cmd.Flags().Int64SliceVar(&ids, "id", nil, "point id (repeatable)")
	return cmd
}

func deleteCmd() *cobra.Command {
	var ids []int64
	cmd := &cobra.Command{
		Use:   "delete <path>",
		Short: "Delete points by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, close, err := openCollection(args[0])
			if err != nil {
				return err
			}
			defer close()
			u := make([]uint64, len(ids))
			for i, id := range ids {
				u[i] = uint64(id)
			}
			c.Delete(u)
			fmt.Printf("deleted %d point(s)\n", len(u))
			return nil
		},
	}
	cmd.Flags().Int64SliceVar(&ids, "id", nil, "point id (repeatable)")
	return cmd
}

func searchCmd() *cobra.Command {
	var vecStr string
	var k int
	cmd := &cobra.Command{
		Use:   "search <path>",
		Short: "Run a k-nearest-neighbor search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, close, err := openCollection(args[0])
			if err != nil {
				return err
			}
			defer close()
			vec, err := parseVector(vecStr)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			results, err := c.Search(ctx, vec, k)
			if err != nil {
				return err
			}
			return printJSON(results)
		},
	}
	cmd.Flags().StringVar(&vecStr, "vector", "", "comma-separated query vector")
	cmd.Flags().IntVar(&k, "k", 10, "number of results")
	cmd.MarkFlagRequired("vector")
	return cmd
}

func queryCmd() *cobra.Command {
	var sql string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "query <path>",
		Short: "Run a VelesQL query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, close, err := openCollection(args[0])
			if err != nil {
				return err
			}
			defer close()
			qc := c.NewQueryContext(context.Background(), timeout)
			defer qc.Cancel()
			rows, err := c.ExecuteQuery(qc, sql, nil)
			if err != nil {
				return err
			}
			return printJSON(rows)
		},
	}
	cmd.Flags().StringVar(&sql, "sql", "", "VelesQL query text")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "query timeout")
	cmd.MarkFlagRequired("sql")
	return cmd
}

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <path>",
		Short: "Recompute and print collection statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, close, err := openCollection(args[0])
			if err != nil {
				return err
			}
			defer close()
			stats, err := c.Analyze()
			if err != nil {
				return err
			}
			return printJSON(stats)
		},
	}
}

func compactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compact <path>",
		Short: "Reclaim space occupied by soft-deleted vectors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, close, err := openCollection(args[0])
			if err != nil {
				return err
			}
			defer close()
			if err := c.Compact(); err != nil {
				return err
			}
			fmt.Println("compact complete")
			return nil
		},
	}
}

func openCollection(path string) (*collection.Collection, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	c, err := collection.Open(path, collectionOptions(cfg))
	if err != nil {
		return nil, nil, err
	}
	return c, func() { c.Close() }, nil
}

func parseVector(s string) ([]float32, error) {
	parts := strings.Split(s, ",")
	vec := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %q: %w", p, err)
		}
		vec[i] = float32(f)
	}
	return vec, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
