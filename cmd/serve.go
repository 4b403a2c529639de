package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Eursukkul/hotel-booking/internal/consumer"
	"github.com/Eursukkul/hotel-booking/internal/server"
	"github.com/Eursukkul/hotel-booking/pkg/rabbitmq"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.prepareCounter(ctx, a.cfg.ReconcileOnStart); err != nil {
		return err
	}

	log := a.logger.WithFields(logrus.Fields{"path": "cmd/serve"})

	if a.cfg.RabbitURL != "" {
		mq, err := rabbitmq.NewConsumer(a.cfg.RabbitURL, a.logger)
		if err != nil {
			return err
		}
		msgs, err := mq.Consume()
		if err != nil {
			mq.Close()
			return err
		}
		done := consumer.NewRateConsumer(a.tariffs, a.logger).Start(msgs)
		defer func() {
			mq.Close()
			<-done
		}()
	}

	e := server.New(a.svc, a.logger, a.cfg.ServiceName)

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", a.cfg.ServerPort).Info("booking service starting")
		errCh <- e.Start(":" + a.cfg.ServerPort)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
