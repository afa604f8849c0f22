package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/bobotcho/wacommerce/internal/ai"
	"github.com/bobotcho/wacommerce/internal/audience"
	"github.com/bobotcho/wacommerce/internal/channel"
	"github.com/bobotcho/wacommerce/internal/config"
	"github.com/bobotcho/wacommerce/internal/gate"
	"github.com/bobotcho/wacommerce/internal/http/middleware"
	"github.com/bobotcho/wacommerce/internal/jobs"
	"github.com/bobotcho/wacommerce/internal/logger"
	"github.com/bobotcho/wacommerce/internal/metrics"
	"github.com/bobotcho/wacommerce/internal/repository"
	"github.com/bobotcho/wacommerce/internal/service"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type Server struct{ e *echo.Echo }

func NewServer(cfg config.Config, mysqlDB, clickhouseDB *sqlx.DB, rds *redis.Client, ch channel.Channel) *Server {
	// repos (MySQL)
	templatesRepo := repository.NewTemplatesRepository(mysqlDB)
	campaignsRepo := repository.NewCampaignsRepository(mysqlDB)
	conversationsRepo := repository.NewConversationsRepository(mysqlDB)
	messagesRepo := repository.NewMessagesRepository(mysqlDB)
	jobsRepo := repository.NewJobsRepository(mysqlDB)
	outboxRepo := repository.NewOutboxRepository(mysqlDB)

	// repos (ClickHouse)
	sendLogRepo := repository.NewSendLogRepository(clickhouseDB)

	// collaborators
	templateGate := gate.New(templatesRepo)
	resolver := audience.NewResolver(conversationsRepo)
	enqueuer := jobs.NewEnqueuer(mysqlDB, jobsRepo, outboxRepo, cfg.Kafka.JobsTopic)
	progress := jobs.NewProgressStore(rds, cfg.Dispatch.ProgressTTL)
	statusReader := jobs.NewStatusReader(jobsRepo, progress)
	generator := ai.NewClient(ai.ClientOpts{
		BaseURL:    cfg.Assistant.BaseURL,
		APIKey:     cfg.Assistant.APIKey,
		Model:      cfg.Assistant.Model,
		Timeout:    cfg.Assistant.Timeout,
		MaxHistory: cfg.Assistant.MaxHistory,
	}, messagesRepo)

	// services
	campaignSvc := service.NewCampaignService(campaignsRepo, templateGate, resolver, enqueuer, logger.L())
	templateSvc := service.NewTemplateService(templatesRepo, ch, templateGate, logger.L())
	assistantSvc := service.NewAssistantService(conversationsRepo, messagesRepo, generator, ch, logger.L())

	// echo
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// middlewares
	authMW := middleware.APIKeyMiddleware(cfg.Auth.APISecret)
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          rds,
		RPS:            cfg.RateLimit.RPS,
		KeyPrefix:      "rl:ip:",
		Window:         time.Second,
		RetryAfterHint: true,
	})

	// routes
	v1 := e.Group("/v1", authMW, rlMW)
	v1.POST("/campaigns/send", launchCampaignHandler(campaignSvc))
	v1.GET("/jobs/:id", jobStatusHandler(statusReader))
	v1.POST("/messages/send", sendMessageHandler(ch))
	v1.GET("/templates", listTemplatesHandler(templateSvc))
	v1.POST("/templates", createTemplateHandler(templateSvc))
	v1.POST("/templates/send", sendTemplateHandler(templateSvc))
	v1.GET("/templates/:name/status", templateStatusHandler(templateSvc))
	v1.POST("/ai/response", assistantHandler(assistantSvc))
	v1.GET("/reports/sends", listSendsHandler(sendLogRepo))

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	log.Printf("http: listening on %s", addr)
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
