// Package audit escribe el log de acciones por evento. Best-effort: una
// falla de audit se loguea y nunca corta el flujo principal.
package audit

import (
	"context"
	"time"

	"github.com/dropDatabas3/certhub/internal/domain/repository"
	"github.com/dropDatabas3/certhub/internal/observability/logger"
)

// Logger persiste entradas de audit via el repositorio.
type Logger struct {
	repo repository.AuditRepository
}

// New crea un Logger. repo puede ser nil: en ese caso las entradas solo
// van al log estructurado.
func New(repo repository.AuditRepository) *Logger {
	return &Logger{repo: repo}
}

// Action registra una acción sobre un evento. Fire-and-forget: no
// retorna error y no bloquea más que la escritura del repo.
func (l *Logger) Action(ctx context.Context, eventID, actor, action, details string) {
	log := logger.From(ctx).With(
		logger.Component("audit"),
		logger.EventID(eventID),
		logger.Actor(actor),
		logger.String("action", action),
	)
	if l == nil || l.repo == nil {
		log.Info("audit", logger.String("details", details))
		return
	}
	// contexto propio: la entrada debe persistirse aunque el request
	// de origen ya se haya cancelado
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	entry := &repository.AuditEntry{
		EventID: eventID,
		Actor:   actor,
		Action:  action,
		Details: details,
	}
	if err := l.repo.Append(wctx, entry); err != nil {
		log.Warn("audit append failed", logger.Err(err))
	}
}
