package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridsight/siterank/internal/feed"
	"github.com/gridsight/siterank/internal/geo"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and manage the infrastructure catalog",
}

var catalogStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the catalog snapshot status after an initial load",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initScoring(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		for _, ft := range geo.AllFeatureTypes {
			if _, err := env.Catalog.Get(ctx, ft); err != nil {
				zap.L().Warn("feature type unavailable",
					zap.String("feature_type", string(ft)),
					zap.Error(err),
				)
			}
		}

		return printStatus(env)
	},
}

var catalogRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Force a full catalog reload and show the resulting status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initScoring(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Catalog.Refresh(ctx); err != nil {
			return err
		}
		return printStatus(env)
	},
}

func printStatus(env *scoringEnv) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(env.Catalog.Status())
}

var snapshotOut string

var catalogSnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Persist the current feature collections to a SQLite snapshot",
	Long:  "Loads every feature type through the configured feed and saves the collections to a local SQLite file usable offline via the sqlite feed driver.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initScoring(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		store, err := feed.NewSQLiteStore(snapshotOut)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		for _, ft := range geo.AllFeatureTypes {
			features, err := env.Catalog.Get(ctx, ft)
			if err != nil {
				zap.L().Warn("skipping unavailable feature type",
					zap.String("feature_type", string(ft)),
					zap.Error(err),
				)
				continue
			}
			if err := store.Save(ctx, ft, features); err != nil {
				return err
			}
			zap.L().Info("saved feature collection",
				zap.String("feature_type", string(ft)),
				zap.Int("count", len(features)),
			)
		}
		return nil
	},
}

func init() {
	catalogSnapshotCmd.Flags().StringVar(&snapshotOut, "out", "siterank.db", "SQLite snapshot path")
	catalogCmd.AddCommand(catalogStatusCmd, catalogRefreshCmd, catalogSnapshotCmd)
	rootCmd.AddCommand(catalogCmd)
}
