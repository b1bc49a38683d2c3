// predictorctl is a small CLI harness for exercising a Recommender against
// a real store from a terminal. It is explicitly outside the core
// library's scope — it exists only to give the config/logging/cobra stack
// a concrete home, and depends on the core only as a library.
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"

	"github.com/lunchtime-labs/predictor-go/internal/config"
	"github.com/lunchtime-labs/predictor-go/internal/logger"
	"github.com/lunchtime-labs/predictor-go/recommend"
	"github.com/lunchtime-labs/predictor-go/store"
)

var (
	className   string
	matrixSpecs []string
	limit       int64
)

var rootCmd = &cobra.Command{
	Use:   "predictorctl",
	Short: "Exercise a recommender class against a running store",
}

func main() {
	rootCmd.PersistentFlags().StringVar(&className, "class", "demo", "recommender class name (keyspace prefix)")
	rootCmd.PersistentFlags().StringSliceVar(&matrixSpecs, "matrix", []string{"users:3", "tags:2", "topics:1"}, "label:weight pairs")
	rootCmd.PersistentFlags().Int64Var(&limit, "limit", 0, "similarity top-K cap (0 = unbounded)")

	rootCmd.AddCommand(addCmd, removeCmd, processCmd, similaritiesCmd, predictionsCmd, cleanCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.For(nil).Errorf("predictorctl: %s", err)
	}
}

func newRecommender(ctx context.Context) (*recommend.Recommender, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("predictorctl: connecting to store: %w", err)
	}

	specs, err := parseMatrixSpecs(matrixSpecs)
	if err != nil {
		return nil, err
	}

	return recommend.New(store.NewRedisStore(client), recommend.Config{
		ClassName: className,
		Matrices:  specs,
		Limit:     limit,
	})
}

func parseMatrixSpecs(raw []string) ([]recommend.MatrixSpec, error) {
	specs := make([]recommend.MatrixSpec, 0, len(raw))
	for _, entry := range raw {
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("predictorctl: invalid --matrix entry %q, want label:weight", entry)
		}
		var weight float64
		if _, err := fmt.Sscanf(parts[1], "%g", &weight); err != nil {
			return nil, fmt.Errorf("predictorctl: invalid weight in --matrix entry %q: %w", entry, err)
		}
		specs = append(specs, recommend.MatrixSpec{Label: parts[0], Weight: weight})
	}
	return specs, nil
}

var addCmd = &cobra.Command{
	Use:   "add [label] [set-id] [items...]",
	Short: "Add items to a set in one matrix, then reprocess",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		r, err := newRecommender(ctx)
		if err != nil {
			return err
		}
		if err := r.AddToMatrix(ctx, args[0], args[1], args[2:], recommend.Immediate); err != nil {
			return err
		}
		logger.For(ctx).Infof("added %v to %s:%s", args[2:], args[0], args[1])
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove [label] [set-id] [items...]",
	Short: "Remove items from a set in one matrix, then reprocess",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		r, err := newRecommender(ctx)
		if err != nil {
			return err
		}
		return r.RemoveFromMatrix(ctx, args[0], args[1], args[2:], recommend.Immediate)
	},
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Reprocess every known item",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		r, err := newRecommender(ctx)
		if err != nil {
			return err
		}
		return r.Process(ctx)
	},
}

var similaritiesCmd = &cobra.Command{
	Use:   "similarities [item]",
	Short: "Print the top similar items for one item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		r, err := newRecommender(ctx)
		if err != nil {
			return err
		}
		results, err := r.SimilaritiesFor(ctx, args[0], recommend.QueryOptions{WithScores: true})
		if err != nil {
			return err
		}
		for _, res := range results {
			fmt.Printf("%s\t%.6f\n", res.Item, res.Score)
		}
		return nil
	},
}

var predictionsCmd = &cobra.Command{
	Use:   "predictions [items...]",
	Short: "Print predicted items for a given input item set",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		r, err := newRecommender(ctx)
		if err != nil {
			return err
		}
		results, err := r.PredictionsFor(ctx, recommend.PredictionInput{Items: args}, recommend.QueryOptions{WithScores: true})
		if err != nil {
			return err
		}
		for _, res := range results {
			fmt.Printf("%s\t%.6f\n", res.Item, res.Score)
		}
		return nil
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete every key under the recommender's prefix",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		r, err := newRecommender(ctx)
		if err != nil {
			return err
		}
		return r.Clean(ctx)
	},
}
