// Package app hace el wiring completo del servidor: config → stores →
// services → HTTP. main.go solo parsea flags y maneja el ciclo de vida.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/certhub/internal/audit"
	"github.com/dropDatabas3/certhub/internal/certificate"
	"github.com/dropDatabas3/certhub/internal/config"
	"github.com/dropDatabas3/certhub/internal/dispatch"
	"github.com/dropDatabas3/certhub/internal/domain/repository"
	httpapi "github.com/dropDatabas3/certhub/internal/http"
	"github.com/dropDatabas3/certhub/internal/observability/logger"
	"github.com/dropDatabas3/certhub/internal/pool"
	"github.com/dropDatabas3/certhub/internal/rate"
	"github.com/dropDatabas3/certhub/internal/render"
	"github.com/dropDatabas3/certhub/internal/storage"
	"github.com/dropDatabas3/certhub/internal/store/memory"
	"github.com/dropDatabas3/certhub/internal/store/pg"
)

// Stores es el set de repositorios que comparten los services, sin
// importar el driver de atrás.
type Stores interface {
	Certificates() repository.CertificateRepository
	Participants() repository.ParticipantRepository
	Events() repository.EventRepository
	Templates() repository.TemplateRepository
	Audit() repository.AuditRepository
}

// App agrupa todo lo que main necesita para arrancar y apagar.
type App struct {
	Server *http.Server
	Stores Stores

	pool    *pool.Pool
	cleanup []func()
}

// New arma la aplicación completa a partir de la configuración.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{}

	// ─── Stores ───
	switch cfg.Storage.Driver {
	case "postgres":
		lifetime, _ := time.ParseDuration(cfg.Storage.Postgres.ConnMaxLifetime)
		st, err := pg.New(ctx, pg.Config{
			DSN:             cfg.Storage.DSN,
			MaxConns:        cfg.Storage.Postgres.MaxConns,
			ConnMaxLifetime: lifetime,
		})
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
		a.cleanup = append(a.cleanup, st.Close)
		a.Stores = st
	case "memory", "":
		a.Stores = memory.NewStore()
	default:
		return nil, fmt.Errorf("app: unknown storage driver %q", cfg.Storage.Driver)
	}

	// ─── Artifacts ───
	fs, err := storage.NewFS(cfg.Artifacts.Root)
	if err != nil {
		a.Close()
		return nil, err
	}

	// ─── Renderer ───
	renderer, err := render.New(render.Config{})
	if err != nil {
		a.Close()
		return nil, err
	}

	auditLog := audit.New(a.Stores.Audit())

	certSvc, err := certificate.NewService(certificate.ServiceConfig{
		Certificates: a.Stores.Certificates(),
		Participants: a.Stores.Participants(),
		Events:       a.Stores.Events(),
		Templates:    a.Stores.Templates(),
		Storage:      fs,
		Renderer:     renderer,
		Audit:        auditLog,
		BaseURL:      cfg.Verification.BaseURL,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	// ─── Dispatch ───
	a.pool = pool.New(pool.Config{
		Core:      cfg.Dispatch.PoolCore,
		Max:       cfg.Dispatch.PoolMax,
		QueueSize: cfg.Dispatch.PoolQueue,
		Logger:    logger.L(),
	})

	sender := dispatch.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port,
		cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
	if cfg.SMTP.TLSMode != "" {
		sender.TLSMode = cfg.SMTP.TLSMode
	}
	sender.InsecureSkipVerify = cfg.SMTP.InsecureSkipVerify

	dispSvc, err := dispatch.NewService(dispatch.ServiceConfig{
		Certificates:  a.Stores.Certificates(),
		Participants:  a.Stores.Participants(),
		Events:        a.Stores.Events(),
		Storage:       fs,
		Sender:        sender,
		Pool:          a.pool,
		Audit:         auditLog,
		ChunkSize:     cfg.Dispatch.ChunkSize,
		SubjectPrefix: cfg.Mail.SubjectPrefix,
		Signature:     cfg.Mail.Signature,
		BannerPaths:   cfg.Mail.BannerPaths,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	// ─── Rate limiting ───
	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		switch cfg.Cache.Kind {
		case "redis":
			client := rdb.NewClient(&rdb.Options{
				Addr: cfg.Cache.Redis.Addr,
				DB:   cfg.Cache.Redis.DB,
			})
			if err := client.Ping(ctx).Err(); err != nil {
				a.Close()
				return nil, fmt.Errorf("app: redis ping: %w", err)
			}
			a.cleanup = append(a.cleanup, func() { _ = client.Close() })
			limiter = rate.NewRedisLimiter(client, cfg.Cache.Redis.Prefix,
				cfg.Rate.Verify.Limit, cfg.VerifyWindow())
		default:
			limiter = rate.NewMemoryLimiter(cfg.Rate.Verify.Limit, cfg.VerifyWindow())
		}
	}

	handler := &httpapi.Handler{
		Certificates:  certSvc,
		Dispatch:      dispSvc,
		Audit:         a.Stores.Audit(),
		VerifyLimiter: limiter,
	}
	a.Server = httpapi.NewServer(httpapi.ServerConfig{
		Addr:               cfg.Server.Addr,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		BearerSecret:       cfg.Auth.BearerSecret,
	}, handler)

	return a, nil
}

// Shutdown apaga en orden: server primero (cierra la entrada), después
// el pool (drena los envíos pendientes), al final stores.
func (a *App) Shutdown(ctx context.Context) error {
	var firstErr error
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.pool != nil {
		if err := a.pool.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.Close()
	return firstErr
}

// Close libera recursos sin drenar. Usar Shutdown para apagados
// ordenados.
func (a *App) Close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}
