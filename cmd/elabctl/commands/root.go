package commands

import (
	"context"
	"elabftw-tools/lib/elabapi"
	"elabftw-tools/lib/serviceutil"
	"elabftw-tools/lib/telemetry"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	debug      *bool
	dumpHttp   *string
)

var tel telemetry.Telemetry

var rootCmd = &cobra.Command{
	Use:   "elabctl",
	Short: "elabctl imports csv files into eLabFTW and reports on its contents.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*debug)

		var err error
		tel, err = telemetry.SetupFromEnv(cmd.Context(), "elabctl")
		if err != nil {
			slog.Warn("failed to setup telemetry", "err", err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		err := tel.Shutdown(ctx)
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	},
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "elabctl.json5", "The config file, parent directories are searched unless given explicitly.")
	debug = rootCmd.PersistentFlags().Bool("debug", false, "Log at debug level.")
	dumpHttp = rootCmd.PersistentFlags().String("dump-http", "", "Write every http exchange into this directory, needs --debug.")
}

func config(cmd *cobra.Command) Config {
	search := !cmd.Flags().Changed("config")
	cfg, err := loadConfig(*configPath, search)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	return cfg
}

func client(cfg Config) *elabapi.Client {
	c, err := cfg.NewClient(*dumpHttp)
	if err != nil {
		serviceutil.Fatal("failed to create api client", err)
	}
	return c
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
