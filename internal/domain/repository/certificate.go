package repository

import (
	"context"
	"time"
)

// GenerationStatus indica el estado de generación del artefacto.
type GenerationStatus string

const (
	GenerationPending   GenerationStatus = "PENDING"
	GenerationGenerated GenerationStatus = "GENERATED"
	GenerationFailed    GenerationStatus = "FAILED"
)

// EmailStatus es la máquina de estados de 3 fases para envíos.
// Se usa tanto en Certificate.EmailStatus como en
// Participant.UpdateEmailStatus.
type EmailStatus string

const (
	EmailNotSent EmailStatus = "NOT_SENT"
	EmailSending EmailStatus = "SENDING"
	EmailSent    EmailStatus = "SENT"
	EmailFailed  EmailStatus = "FAILED"
)

// Certificate representa el certificado de un participante.
//
// Invariantes: a lo sumo un Certificate con GenerationStatus=GENERATED por
// participante; Token único entre todos los certificados. Una vez emitido,
// el token es inmutable.
type Certificate struct {
	ID               string
	Token            string // verification token, opaco, único
	ParticipantID    string
	EventID          string
	ArtifactPath     string
	GenerationStatus GenerationStatus
	EmailStatus      EmailStatus
	GeneratedAt      *time.Time
	EmailSentAt      *time.Time
	ErrorMessage     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// CertificateRepository define operaciones sobre certificados.
type CertificateRepository interface {
	// Create inserta un certificado nuevo.
	// Retorna ErrConflict si el token ya existe.
	Create(ctx context.Context, c *Certificate) error

	// Update sobreescribe los campos mutables (status, paths, timestamps,
	// error message). El token nunca cambia.
	Update(ctx context.Context, c *Certificate) error

	// GetByID busca por id. Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*Certificate, error)

	// GetByToken busca por igualdad exacta de token.
	// Retorna ErrNotFound si no existe.
	GetByToken(ctx context.Context, token string) (*Certificate, error)

	// ListByEvent retorna todos los certificados del evento.
	ListByEvent(ctx context.Context, eventID string) ([]Certificate, error)

	// Delete elimina un certificado (descarta su token).
	Delete(ctx context.Context, id string) error

	// DeleteByEvent elimina todos los certificados del evento.
	// Se invoca cuando el evento se borra.
	DeleteByEvent(ctx context.Context, eventID string) (int, error)
}
