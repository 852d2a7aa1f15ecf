package main

import (
	"context"
	"crypto"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc/health"

	"phone-otp-auth/internal/config"
	"phone-otp-auth/internal/db"
	"phone-otp-auth/internal/devotp"
	healthcheck "phone-otp-auth/internal/health"
	"phone-otp-auth/internal/identity/service"
	"phone-otp-auth/internal/logging"
	"phone-otp-auth/internal/otp"
	"phone-otp-auth/internal/otp/sms"
	"phone-otp-auth/internal/otp/store"
	"phone-otp-auth/internal/security"
	"phone-otp-auth/internal/server"
	"phone-otp-auth/internal/telemetry"
	"phone-otp-auth/internal/telemetry/otel"
	"phone-otp-auth/internal/telemetry/producer"
	userrepo "phone-otp-auth/internal/user/repository"
)

const (
	serviceName     = "otpauth"
	healthInterval  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(serviceName, version, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, serviceName, version, cfg.OTLPInsecure)
	if err != nil {
		return err
	}
	providers.SetGlobal()
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(sctx); err != nil {
			logger.Warn("otel shutdown", "error", err)
		}
	}()

	pool, err := db.Open(ctx, cfg.DatabaseURL, db.DefaultConnectAttempts)
	if err != nil {
		return err
	}
	defer pool.Close()
	users := userrepo.NewPostgresRepository(pool)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	codes := store.NewRedisStore(rdb, cfg.StoreTimeoutDuration())

	tokens, err := newTokenProvider(cfg, logger)
	if err != nil {
		return err
	}

	var (
		sender otp.Sender
		dev    devotp.Store
	)
	if cfg.OTPReturnToClient {
		mem := devotp.NewMemoryStore(cfg.OTPTTL())
		sender, dev = mem, mem
		logger.Warn("dev OTP mode enabled: codes are not sent by SMS and are readable at GET /dev/otp")
	} else {
		if cfg.SMSLocalAPIKey == "" {
			return errors.New("SMS_LOCAL_API_KEY is required unless OTP_RETURN_TO_CLIENT is set")
		}
		sender = sms.NewSMSLocalClient(cfg.SMSLocalAPIKey, cfg.SMSLocalBaseURL, cfg.SMSLocalSender)
	}

	emitters := []telemetry.EventEmitter{otel.NewEventEmitter(providers.LoggerProvider)}
	kafkaProducer, err := producer.NewKafkaProducer(cfg.EventKafkaBrokersList(), cfg.EventKafkaTopic, cfg.EventSerializerFormat)
	if err != nil {
		return err
	}
	if kafkaProducer != nil {
		defer kafkaProducer.Close()
		emitters = append(emitters, kafkaProducer)
		logger.Info("auth events published to kafka", "topic", cfg.EventKafkaTopic, "format", cfg.EventSerializerFormat)
	}
	emitter := telemetry.NewFanout(emitters...)

	auth := service.NewAuthService(
		users,
		codes,
		otp.NewRateLimiter(codes, cfg.OTPRateLimit, cfg.OTPRateWindow()),
		otp.NewGenerator(cfg.OTPDigits, cfg.OTPTTL()),
		sender,
		tokens,
		service.WithLogger(logger),
		service.WithEmitter(emitter),
		service.WithMeter(providers.MeterProvider.Meter(serviceName)),
		service.WithDeliveryTimeout(cfg.DeliveryTimeout()),
		service.WithStoreTimeout(cfg.StoreTimeoutDuration()),
	)

	checker := healthcheck.NewChecker(cfg.StoreTimeoutDuration()).
		Add("postgres", healthcheck.PingFunc(pool.Ping)).
		Add("redis", codes)

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.NewRouter(server.Deps{
		Auth:             auth,
		Tokens:           tokens,
		Health:           checker,
		Emitter:          emitter,
		Logger:           logger,
		RequireAnonToken: cfg.RequireAnonToken,
		DevOTP:           dev,
	})
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	hs := health.NewServer()
	grpcSrv := server.NewGRPCServer(hs)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}
	go healthcheck.Run(ctx, checker, hs, healthInterval, logger, server.ServiceName)

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("grpc server listening", "addr", cfg.GRPCAddr)
		if err := grpcSrv.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case serveErr = <-errCh:
		logger.Error("server failed", "error", serveErr)
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(sctx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	grpcSrv.GracefulStop()

	// Pending SMS deliveries and async emits get one drain window before the emitters are closed.
	dctx, dcancel := context.WithTimeout(context.Background(), telemetry.ShutdownDrainDuration)
	defer dcancel()
	if err := auth.WaitDeliveries(dctx); err != nil {
		logger.Warn("pending deliveries abandoned", "error", err)
	}
	if kafkaProducer != nil {
		<-dctx.Done()
	}
	logger.Info("stopped")
	return serveErr
}

// newTokenProvider loads the JWT key pair, or generates an ephemeral key outside production.
func newTokenProvider(cfg *config.Config, logger *slog.Logger) (*security.TokenProvider, error) {
	var (
		signer crypto.Signer
		pub    crypto.PublicKey
		err    error
	)
	switch {
	case cfg.JWTPrivateKey != "":
		signer, pub, err = security.LoadKeyPair(cfg.JWTPrivateKey, cfg.JWTPublicKey)
		if err != nil {
			return nil, err
		}
	case cfg.Env == "production":
		return nil, errors.New("JWT_PRIVATE_KEY is required when APP_ENV=production")
	default:
		key, err := security.GenerateEphemeralKey()
		if err != nil {
			return nil, err
		}
		signer, pub = key, key.Public()
		logger.Warn("JWT_PRIVATE_KEY not set; using an ephemeral signing key")
	}
	return security.NewTokenProvider(signer, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL(), cfg.AnonTTL())
}
