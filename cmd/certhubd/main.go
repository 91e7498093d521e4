package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/certhub/internal/app"
	"github.com/dropDatabas3/certhub/internal/config"
	"github.com/dropDatabas3/certhub/internal/observability/logger"
)

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func printConfigSummary(c *config.Config) {
	secretMasked := "***masked***"
	if c.Auth.BearerSecret == "" {
		secretMasked = "NOT_SET"
	}
	log.Printf(`CONFIG:
  server.addr=%s
  cors=%v

  storage.driver=%s
  storage.dsn=%s
  artifacts.root=%s

  smtp(host=%s, port=%d, user=%s, from=%s, tls=%s, insecure=%t)
  mail(prefix=%q, banner_paths=%v)

  dispatch(core=%d, max=%d, queue=%d, chunk=%d)

  verification.base_url=%s
  rate(enabled=%t, limit=%d, window=%s)
  cache.kind=%s redis.addr=%s

  auth.bearer_secret=%s
`,
		c.Server.Addr, c.Server.CORSAllowedOrigins,
		c.Storage.Driver, c.Storage.DSN, c.Artifacts.Root,
		c.SMTP.Host, c.SMTP.Port, c.SMTP.Username, c.SMTP.From, c.SMTP.TLSMode, c.SMTP.InsecureSkipVerify,
		c.Mail.SubjectPrefix, c.Mail.BannerPaths,
		c.Dispatch.PoolCore, c.Dispatch.PoolMax, c.Dispatch.PoolQueue, c.Dispatch.ChunkSize,
		c.Verification.BaseURL,
		c.Rate.Enabled, c.Rate.Verify.Limit, c.Rate.Verify.Window,
		c.Cache.Kind, c.Cache.Redis.Addr,
		secretMasked,
	)
}

func main() {
	var (
		flagConfigPath = flag.String("config", "", "ruta a config.yaml (fallback: $CONFIG_PATH o configs/config.yaml)")
		flagEnvOnly    = flag.Bool("env", false, "usar SOLO env (y .env si se pasa -env-file)")
		flagEnvFile    = flag.String("env-file", ".env", "ruta a .env (si existe, se carga)")
		flagPrint      = flag.Bool("print-config", false, "imprime config efectiva y termina")
	)
	flag.Parse()

	if *flagEnvFile != "" && (fileExists(*flagEnvFile) || *flagEnvOnly) {
		if err := godotenv.Load(*flagEnvFile); err == nil {
			log.Printf("dotenv: cargado %s", *flagEnvFile)
		}
	}

	var cfg *config.Config
	var err error
	if *flagEnvOnly {
		cfg = config.FromEnv()
		if err := cfg.Validate(); err != nil {
			log.Fatalf("config validation: %v", err)
		}
	} else {
		cfgPath := *flagConfigPath
		if cfgPath == "" {
			cfgPath = os.Getenv("CONFIG_PATH")
		}
		if cfgPath == "" {
			if fileExists("configs/config.yaml") {
				cfgPath = "configs/config.yaml"
			} else {
				cfgPath = "configs/config.example.yaml"
			}
		}
		cfg, err = config.Load(cfgPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	if *flagPrint {
		printConfigSummary(cfg)
		return
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.L().Fatal("wiring failed", logger.Err(err))
	}

	go func() {
		logger.L().Info("server listening", logger.String("addr", cfg.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.L().Fatal("server failed", logger.Err(err))
		}
	}()

	<-ctx.Done()
	logger.L().Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		logger.L().Error("shutdown incomplete", logger.Err(err))
		os.Exit(1)
	}
	logger.L().Info("bye")
}
