package cmd

import (
	"context"

	"github.com/Eursukkul/hotel-booking/internal/gateway"
	"github.com/Eursukkul/hotel-booking/internal/server"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
)

var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Serve API Gateway HTTP events from the lambda runtime",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLambda(cmd.Context())
	},
}

// runLambda hands control to the lambda runtime and does not return. Cold starts run
// alongside live instances, so they only create a missing counter and never rebuild it.
func runLambda(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	if err := a.prepareCounter(ctx, false); err != nil {
		a.Close()
		return err
	}

	adapter := gateway.NewAdapter(server.New(a.svc, a.logger, a.cfg.ServiceName))
	lambda.Start(adapter.Handle)
	return nil
}
