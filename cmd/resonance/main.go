// Command resonance 运行推荐服务，并提供数据拉取、摘要与离线推荐命令。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rushteam/resonance/config"
	_ "github.com/rushteam/resonance/config/builders"
	"github.com/rushteam/resonance/pkg/logger"
)

type app struct {
	configPath string
	cfg        *config.AppConfig
	log        *zap.Logger
}

func main() {
	a := &app{}
	root := &cobra.Command{
		Use:           "resonance",
		Short:         "Hybrid post recommender",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger.New(cfg.Log)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "config.yaml", "path to config file")
	root.AddCommand(a.serveCmd(), a.ingestCmd(), a.enrichCmd(), a.recommendCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
