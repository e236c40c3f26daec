// Command consumer reads reservation.created events from the configured
// broker and appends them to the reservation log.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/theatre-booking/internal/config"
	"github.com/iliyamo/theatre-booking/internal/logging"
	"github.com/iliyamo/theatre-booking/internal/queue"
)

func main() {
	configPath := flag.String("config", "config.yml", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Log)

	rlog, f, err := queue.OpenReservationLog(cfg.Broker.LogDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("open reservation log")
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	switch kind := cfg.Broker.Normalized(); kind {
	case config.BrokerRabbitMQ:
		g.Go(func() error {
			return queue.ConsumeAMQP(ctx, cfg.Broker.URL, cfg.Broker.Queue, rlog.Handle)
		})
	case config.BrokerKafka:
		r := queue.NewKafkaReader(cfg.Broker.Brokers, cfg.Broker.Topic, cfg.Broker.GroupID)
		g.Go(func() error {
			return queue.ConsumeKafka(ctx, r, rlog.Handle)
		})
		g.Go(func() error {
			<-ctx.Done()
			return r.Close()
		})
	default:
		logger.Fatal().Str("broker", cfg.Broker.Kind).Msg("consumer needs BROKER=rabbitmq or BROKER=kafka")
	}

	logger.Info().Str("broker", cfg.Broker.Normalized()).Str("log_dir", cfg.Broker.LogDir).Msg("consuming reservation events")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("consumer stopped")
		os.Exit(1)
	}
	logger.Info().Msg("consumer stopped")
}
