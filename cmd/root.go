package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "hotel-booking",
	Short:        "Hotel room booking service",
	SilenceUsage: true,
	// Without a subcommand the binary serves HTTP, or API Gateway events when started by
	// the lambda runtime.
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
			return runLambda(cmd.Context())
		}
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, lambdaCmd, reconcileCmd)
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
