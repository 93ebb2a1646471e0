package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"specflow/internal/config"
	"specflow/internal/db"
	"specflow/internal/email"
	apihttp "specflow/internal/http"
	"specflow/internal/llm"
	"specflow/internal/metrics"
	"specflow/internal/oauth"
	"specflow/internal/payment"
	"specflow/internal/repository"
	"specflow/internal/service"
)

const (
	forgotWindow  = 15 * time.Minute
	forgotMax     = 3
	contactWindow = time.Hour
	contactMax    = 5
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	users, subscribers, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store init", zap.Error(err))
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(registry)

	var sender email.Sender = email.NewDisabledSender("email sender not configured")
	if cfg.MailEnabled() {
		smtpSender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			sender = smtpSender
		}
	}
	dispatcher := email.NewDispatcher(sender, logger, recorder)

	resetStore := service.NewMemoryResetTokenStore()
	forgotLimiter := service.NewRateLimiter(forgotWindow, forgotMax)
	contactLimiter := service.NewRateLimiter(contactWindow, contactMax)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory stores", zap.Error(err))
		} else {
			resetStore = service.NewRedisResetTokenStore(redisClient)
			forgotLimiter = service.NewRedisRateLimiter(redisClient, logger, service.ScopeForgotPassword, forgotWindow, forgotMax)
			contactLimiter = service.NewRedisRateLimiter(redisClient, logger, service.ScopeContact, contactWindow, contactMax)
		}
		cancel()
	}

	jwtSvc := service.NewJWTService(
		cfg.JWTSecret,
		time.Duration(cfg.JWTTTLMinutes)*time.Minute,
		time.Duration(cfg.ResetTTLMinutes)*time.Minute,
		resetStore,
	)

	var gateway payment.Gateway
	if stripeGateway, err := payment.NewStripeGateway(cfg.StripeSecretKey); err != nil {
		logger.Warn("payments disabled", zap.Error(err))
	} else {
		gateway = stripeGateway
	}

	llmClient := llm.NewHTTPClient(llm.Options{
		BaseURL:     cfg.LLMBaseURL,
		APIKey:      cfg.LLMAPIKey,
		TextModel:   cfg.LLMTextModel,
		VisionModel: cfg.LLMVisionModel,
	}, logger)

	inbox := cfg.ContactInbox
	if inbox == "" {
		inbox = cfg.SMTPFrom
	}

	userSvc := service.NewUserService(logger, users, jwtSvc, oauth.NewGoogleClient(cfg.GoogleUserinfoURL, nil), dispatcher, forgotLimiter, cfg.ClientURL)
	paymentSvc := service.NewPaymentService(logger, gateway, recorder, cfg.ClientURL+"/generate")
	newsletterSvc := service.NewNewsletterService(logger, subscribers, dispatcher)
	contactSvc := service.NewContactService(logger, dispatcher, contactLimiter, inbox)
	specSvc := service.NewSpecService(logger, llmClient, recorder)

	router := apihttp.NewRouter(logger,
		apihttp.RouterConfig{
			Public: apihttp.PublicConfig{
				GoogleClientID:  cfg.GoogleClientID,
				StripePublicKey: cfg.StripePublicKey,
			},
			AllowedOrigins: cfg.AllowedOrigins,
			TrustedProxies: cfg.TrustedProxies,
			Metrics:        recorder,
			Gatherer:       registry,
		},
		jwtSvc,
		apihttp.NewAuthHandler(logger, userSvc),
		apihttp.NewPaymentHandler(logger, paymentSvc),
		apihttp.NewSiteHandler(logger, newsletterSvc, contactSvc),
		apihttp.NewGenerateHandler(logger, specSvc),
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("store", cfg.StoreDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	dispatcher.Wait()
}

// openStore abre el backend de persistencia elegido por STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.UserRepository, repository.SubscriberRepository, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		if cfg.RunMigrations {
			if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
				return nil, nil, nil, err
			}
			logger.Info("migrations applied")
		}
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		return repository.NewPgUserRepository(pool), repository.NewPgSubscriberRepository(pool), pool.Close, nil
	default:
		client, database, err := db.NewMongo(ctx, cfg.MongoURL, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.EnsureIndexes(ctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Warn("mongo disconnect", zap.Error(err))
			}
		}
		return repository.NewMongoUserRepository(database), repository.NewMongoSubscriberRepository(database), closeFn, nil
	}
}
