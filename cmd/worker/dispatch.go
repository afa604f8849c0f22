package worker

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobotcho/wacommerce/internal/channel"
	"github.com/bobotcho/wacommerce/internal/config"
	"github.com/bobotcho/wacommerce/internal/db"
	"github.com/bobotcho/wacommerce/internal/dispatch"
	"github.com/bobotcho/wacommerce/internal/jobs"
	"github.com/bobotcho/wacommerce/internal/kafka"
	"github.com/bobotcho/wacommerce/internal/logger"
	"github.com/bobotcho/wacommerce/internal/metrics"
	"github.com/bobotcho/wacommerce/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var dispatchWorkers int

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Run dispatch worker (consumes job envelopes, executes bulk sends)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Init(cfg.Log.Level)

		metrics.MustRegister(prometheus.DefaultRegisterer)

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

		redisClient, err := db.NewRedisClient(db.RedisOpts{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		defer func() { _ = redisClient.Close() }()

		chDB, err := db.NewClickHouseConnection(db.ClickHouseOpts{
			DSN:             cfg.ClickHouse.DSN,
			MaxOpenConns:    cfg.ClickHouse.MaxOpenConns,
			MaxIdleConns:    cfg.ClickHouse.MaxIdleConns,
			ConnMaxLifetime: cfg.ClickHouse.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ClickHouse.ConnMaxIdleTime,
			PingTimeout:     cfg.ClickHouse.PingTimeout,
		})
		if err != nil {
			return fmt.Errorf("clickhouse connect: %w", err)
		}
		defer func() { _ = chDB.Close() }()

		jobsRepo := repository.NewJobsRepository(dbx)
		campaignsRepo := repository.NewCampaignsRepository(dbx)
		sendLogRepo := repository.NewSendLogRepository(chDB)
		progress := jobs.NewProgressStore(redisClient, cfg.Dispatch.ProgressTTL)

		wa := channel.NewTwilioChannel(channel.TwilioOpts{
			BaseURL:       cfg.Channel.BaseURL,
			AccountSID:    cfg.Channel.AccountSID,
			AuthToken:     cfg.Channel.AuthToken,
			FromNumber:    cfg.Channel.FromNumber,
			Timeout:       cfg.Channel.Timeout,
			FailThreshold: cfg.Channel.Breaker.FailThreshold,
			OpenFor:       time.Duration(cfg.Channel.Breaker.OpenForMs) * time.Millisecond,
		})

		disp := dispatch.NewDispatcher(wa, campaignsRepo, progress, sendLogRepo, logger.L(), dispatch.Config{
			PaceInterval:    cfg.Dispatch.PaceInterval,
			CheckpointEvery: cfg.Dispatch.CheckpointEvery,
			Kind:            "campaign",
		})

		groupID := cfg.Kafka.GroupID
		if groupID == "" {
			groupID = "wacommerce-dispatch"
		}
		consumer := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:        cfg.Kafka.Brokers,
			Topic:          cfg.Kafka.JobsTopic,
			GroupID:        groupID,
			MinBytes:       cfg.Kafka.MinBytes,
			MaxBytes:       cfg.Kafka.MaxBytes,
			CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
		})
		defer consumer.Close()

		w := jobs.NewWorker(consumer, jobsRepo, disp, logger.L())
		if dispatchWorkers > 0 {
			w.Workers = dispatchWorkers
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Printf(">> dispatch worker started topic=%s group=%s workers=%d",
			cfg.Kafka.JobsTopic, groupID, w.Workers)

		return w.Run(ctx)
	},
}

func init() {
	dispatchCmd.Flags().IntVar(&dispatchWorkers, "workers", 0, "number of concurrent job processors (0 = default)")
}
