package worker

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bobotcho/wacommerce/internal/config"
	"github.com/bobotcho/wacommerce/internal/db"
	"github.com/bobotcho/wacommerce/internal/jobs"
	"github.com/bobotcho/wacommerce/internal/kafka"
	"github.com/bobotcho/wacommerce/internal/logger"
	"github.com/bobotcho/wacommerce/internal/repository"
	"github.com/spf13/cobra"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run outbox relay (ships committed job events to Kafka)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level)

		dbx, err := db.NewMySQLConnection(cfg.MySQL.DSN, db.MySQLOpts{
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.MySQL.ConnMaxIdleTime,
			PingTimeout:     cfg.MySQL.PingTimeout,
		})
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer dbx.Close()

		outboxRepo := repository.NewOutboxRepository(dbx)
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()

		relay := jobs.NewRelay(outboxRepo, producer, logger.L())

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Printf(">> outbox relay started poll=%s batch=%d", relay.PollInterval, relay.BatchSize)

		return relay.Run(ctx)
	},
}
