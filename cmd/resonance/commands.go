package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rushteam/resonance/enrich"
	"github.com/rushteam/resonance/ingest"
	"github.com/rushteam/resonance/server"
)

func (a *app) serveCmd() *cobra.Command {
	var warmup bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve /feed over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, closeStore, err := a.openSignalStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			eng, err := a.newEngine(st)
			if err != nil {
				return err
			}
			if warmup {
				// 失败时不退出：首个请求会重新构建
				if err := eng.Warmup(ctx); err != nil {
					a.log.Warn("warmup failed", zap.Error(err))
				}
			}
			srv := server.New(eng, st, a.log)
			return srv.Run(ctx, a.cfg.Server.Addr, time.Duration(a.cfg.Server.ShutdownTimeout)*time.Second)
		},
	}
	cmd.Flags().BoolVar(&warmup, "warmup", true, "build the snapshot before accepting requests")
	return cmd
}

func (a *app) ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [view|like|inspire|rating|posts]...",
		Short: "Fetch interactions and posts from the upstream API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.RequireUpstream(); err != nil {
				return err
			}
			ctx := cmd.Context()
			st, closeStore, err := a.openSignalStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			up := a.cfg.Upstream
			client := ingest.NewClient(ingest.Config{
				BaseURL:            up.BaseURL,
				FlicToken:          up.FlicToken,
				ResonanceAlgorithm: up.ResonanceAlgorithm,
				PageSize:           up.PageSize,
				RatePerSecond:      up.RatePerSecond,
				Timeout:            time.Duration(up.TimeoutSec) * time.Second,
				Logger:             a.log,
			})
			results, err := ingest.NewIngester(client, st, a.log).Run(ctx, args...)
			for _, r := range results {
				a.log.Info("ingest result", zap.String("resource", r.Resource), zap.Int("records", r.Records), zap.Error(r.Err))
			}
			return err
		},
	}
}

func (a *app) enrichCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enrich",
		Short: "Summarize and categorize stored posts into the item table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ec := a.cfg.Enrich
			summarizer, err := enrich.NewOpenAISummarizer(ec.APIKey,
				enrich.WithBaseURL(ec.BaseURL),
				enrich.WithModel(ec.Model),
				enrich.WithTimeout(time.Duration(ec.TimeoutSec)*time.Second),
				enrich.WithLogger(a.log),
			)
			if err != nil {
				return err
			}
			st, closeStore, err := a.openSignalStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			pool := enrich.NewPool(summarizer,
				enrich.WithWriter(st),
				enrich.WithWorkers(ec.Workers),
				enrich.WithPoolLogger(a.log),
			)
			_, report, err := pool.Run(ctx, st)
			a.log.Info("enrich report",
				zap.Int("total", report.Total),
				zap.Int("succeeded", report.Succeeded),
				zap.Int("degraded", report.Degraded),
				zap.Int("skipped", report.Skipped),
			)
			return err
		},
	}
}

func (a *app) recommendCmd() *cobra.Command {
	var (
		userID   int64
		category string
		k        int
		explain  bool
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Print recommendations for one user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, closeStore, err := a.openSignalStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			eng, err := a.newEngine(st)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if explain {
				items, err := eng.RecommendItems(ctx, userID, category, k)
				if err != nil {
					return err
				}
				return enc.Encode(items)
			}
			ids, err := eng.Recommend(ctx, userID, category, k)
			if err != nil {
				return err
			}
			return enc.Encode(ids)
		},
	}
	cmd.Flags().Int64VarP(&userID, "user", "u", 0, "user id")
	cmd.Flags().StringVar(&category, "category", "", "exact category filter")
	cmd.Flags().IntVar(&k, "k", 0, "number of results (0 = configured default)")
	cmd.Flags().BoolVar(&explain, "explain", false, "print scores and labels")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
