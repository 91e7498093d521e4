package repository

import (
	"context"
	"time"
)

// AuditEntry es una fila del log de acciones por evento.
type AuditEntry struct {
	ID        string
	EventID   string
	Actor     string // identidad ya resuelta del que disparó la acción
	Action    string // ej: "GENERATE_CERTIFICATES", "SEND_CERTIFICATES"
	Details   string
	Timestamp time.Time
}

// AuditRepository define operaciones sobre el log de acciones.
type AuditRepository interface {
	// Append agrega una entrada. Best-effort: el caller no debe
	// propagar el error al flujo principal.
	Append(ctx context.Context, e *AuditEntry) error

	// ListByEvent retorna las entradas del evento, más recientes primero.
	ListByEvent(ctx context.Context, eventID string) ([]AuditEntry, error)
}
