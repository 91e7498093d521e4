// Package pg implementa los repositorios del dominio sobre PostgreSQL
// via pgx. Driver de producción; el de desarrollo/tests es
// internal/store/memory.
package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/certhub/internal/domain/repository"
)

// Store agrupa el pool y expone un view por repositorio.
type Store struct {
	pool *pgxpool.Pool
}

// Config del pool de conexiones.
type Config struct {
	DSN             string
	MaxConns        int
	ConnMaxLifetime time.Duration
}

// New conecta al cluster y verifica la conexión.
func New(ctx context.Context, cfg Config) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close libera el pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Certificates retorna el view de CertificateRepository.
func (s *Store) Certificates() repository.CertificateRepository { return certRepo{s.pool} }

// Participants retorna el view de ParticipantRepository.
func (s *Store) Participants() repository.ParticipantRepository { return participantRepo{s.pool} }

// Events retorna el view de EventRepository.
func (s *Store) Events() repository.EventRepository { return eventRepo{s.pool} }

// Templates retorna el view de TemplateRepository.
func (s *Store) Templates() repository.TemplateRepository { return templateRepo{s.pool} }

// Audit retorna el view de AuditRepository.
func (s *Store) Audit() repository.AuditRepository { return auditRepo{s.pool} }
