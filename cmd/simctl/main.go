package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cryptosim/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "simctl",
		Short: "Offline tools for the crypto simulator profile",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				if err := os.Setenv("CONFIG_FILE", configPath); err != nil {
					return err
				}
			}
			level := "warn"
			if verbose {
				level = "debug"
			}
			logger.SetServiceName("simctl")
			return logger.Init(level, true)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (defaults to CONFIG_FILE or configs/values_local.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(marketCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(portfolioCmd())
	rootCmd.AddCommand(tradeCmd())
	rootCmd.AddCommand(exportCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
