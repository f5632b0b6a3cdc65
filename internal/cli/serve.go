package cli

import (
	"context"

	api "cravecart/internal/api/http"
	"cravecart/internal/config"
	"cravecart/internal/database"
	"cravecart/internal/events"
	"cravecart/internal/identity"
	"cravecart/internal/infrastructure/kafka"
	"cravecart/internal/infrastructure/rabbitmq"
	"cravecart/internal/infrastructure/s3archive"
	"cravecart/internal/infrastructure/sms"
	"cravecart/internal/logging"
	"cravecart/internal/realtime"
	"cravecart/internal/repo"
	"cravecart/internal/service"
	"cravecart/internal/worker"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, realtime hub and stuck order monitor",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTP.Addr = addr
		}
		return serve(cmd.Context(), cfg, log)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address, overrides http.addr")
}

func serve(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.DB)
	if err != nil {
		return err
	}
	dbService := database.New(db, cfg.DB.Database, logging.For(log, "database"))
	defer dbService.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	orderRepo := repo.NewOrderRepo(db)
	catalogRepo := repo.NewCatalogRepo(db)
	profileRepo := repo.NewProfileRepo(db)

	catalog := service.NewCatalogService(catalogRepo, logging.For(log, "catalog-service"))
	if _, err := catalog.SeedDefaults(ctx); err != nil {
		return err
	}

	hub := realtime.NewHub(orderRepo, logging.For(log, "realtime"))

	publishers := events.Multi{hub}
	var broker *rabbitmq.Broker

	if cfg.RabbitMQ.Enabled {
		broker, err = rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logging.For(log, "rabbitmq"))
		if err != nil {
			return err
		}
		defer broker.Close()
		publishers = append(publishers, broker)
	}

	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka.BrokerList, cfg.Kafka.Topic, logging.For(log, "kafka"))
		if err != nil {
			return err
		}
		defer producer.Close()
		publishers = append(publishers, producer)
	}

	if cfg.S3.Enabled {
		archiver, err := s3archive.New(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.Prefix)
		if err != nil {
			return err
		}
		publishers = append(publishers, archiver)
	}

	var gateway sms.Gateway
	if cfg.SMS.GatewayURL != "" {
		gateway = sms.NewHTTPGateway(cfg.SMS.GatewayURL, cfg.SMS.APIKey, cfg.SMS.Timeout)
	} else {
		gateway = sms.NewLogGateway(logging.For(log, "sms"))
	}

	identities := identity.NewJWTProvider(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	partners := service.NewPartnerService(repo.NewPartnerRepo(db), identities, service.AdminCredentials{
		Username:     cfg.Auth.AdminUsername,
		PasswordHash: cfg.Auth.AdminPasswordHash,
	}, logging.For(log, "partner-service"))
	auth := service.NewAuthService(repo.NewOTPRepo(db), gateway, identities, service.OTPPolicy{
		TTL:            cfg.Auth.OTPTTL,
		ResendInterval: cfg.Auth.OTPResendInterval,
		MaxAttempts:    cfg.Auth.OTPMaxAttempts,
	}, logging.For(log, "auth-service"))

	deps := api.Deps{
		Orders:     service.NewOrderService(orderRepo, catalogRepo, profileRepo, hub, publishers, cfg.Pricing, logging.For(log, "order-service")),
		Partners:   partners,
		Auth:       auth,
		Catalog:    catalog,
		Profiles:   service.NewProfileService(profileRepo, logging.For(log, "profile-service")),
		Identities: identities,
		DB:         dbService,
		Log:        logging.For(log, "http"),
	}

	monitor := worker.NewStuckOrderMonitor(orderRepo, cfg.Monitor.Interval, cfg.Monitor.StuckAfter, logging.For(log, "stuck-monitor"))
	server := api.NewServer(cfg.HTTP.Addr, cfg.HTTP.AllowedOrigins, deps)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})
	if broker != nil {
		// Events from other instances only need to poke the local hub.
		g.Go(func() error {
			return broker.Listen(ctx, func(events.OrderEvent) { hub.Notify() })
		})
	}
	g.Go(func() error {
		monitor.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return server.Run(ctx)
	})

	return g.Wait()
}
