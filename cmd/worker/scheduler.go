package worker

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobotcho/wacommerce/internal/audience"
	"github.com/bobotcho/wacommerce/internal/channel"
	"github.com/bobotcho/wacommerce/internal/config"
	"github.com/bobotcho/wacommerce/internal/db"
	"github.com/bobotcho/wacommerce/internal/dispatch"
	"github.com/bobotcho/wacommerce/internal/gate"
	"github.com/bobotcho/wacommerce/internal/jobs"
	"github.com/bobotcho/wacommerce/internal/logger"
	"github.com/bobotcho/wacommerce/internal/metrics"
	"github.com/bobotcho/wacommerce/internal/repository"
	"github.com/bobotcho/wacommerce/internal/scheduler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run periodic jobs (automation ticks, approval polling)",
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

		automationsRepo := repository.NewAutomationsRepository(dbx)
		templatesRepo := repository.NewTemplatesRepository(dbx)
		conversationsRepo := repository.NewConversationsRepository(dbx)
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
			Kind:            "automation",
		})

		sched := scheduler.New(
			automationsRepo,
			templatesRepo,
			gate.New(templatesRepo),
			audience.NewResolver(conversationsRepo),
			disp,
			wa,
			logger.L(),
			scheduler.Config{
				AutomationSpec: cfg.Scheduler.AutomationSpec,
				ApprovalSpec:   cfg.Scheduler.ApprovalSpec,
			},
		)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}

		log.Printf(">> scheduler started automations=%q approvals=%q",
			cfg.Scheduler.AutomationSpec, cfg.Scheduler.ApprovalSpec)

		<-ctx.Done()
		log.Println("shutting down, waiting for in-flight ticks...")
		sched.Stop()

		return nil
	},
}
