package certificate

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/certhub/internal/domain/repository"
	"github.com/dropDatabas3/certhub/internal/metrics"
	"github.com/dropDatabas3/certhub/internal/observability/logger"
)

// Verification son los hechos que se publican cuando un token resuelve a
// un certificado válido. No expone IDs internos.
type Verification struct {
	Valid           bool       `json:"valid"`
	ParticipantName string     `json:"participantName"`
	EventName       string     `json:"eventName"`
	EventDate       time.Time  `json:"eventDate"`
	OrganizerName   string     `json:"organizerName,omitempty"`
	InstituteName   string     `json:"instituteName,omitempty"`
	GeneratedAt     *time.Time `json:"generatedAt,omitempty"`
	Token           string     `json:"token"`
}

// Verify resuelve un token público. Distingue dos negativos: token
// desconocido (repository.ErrNotFound) y certificado existente pero no
// GENERATED (ErrNotValid).
func (s *Service) Verify(ctx context.Context, tok string) (*Verification, error) {
	cert, err := s.certs.GetByToken(ctx, tok)
	if err != nil {
		if repository.IsNotFound(err) {
			metrics.VerifyLookups.WithLabelValues("not_found").Inc()
			return nil, err
		}
		return nil, fmt.Errorf("certificate: lookup token: %w", err)
	}
	if cert.GenerationStatus != repository.GenerationGenerated {
		metrics.VerifyLookups.WithLabelValues("not_valid").Inc()
		return nil, ErrNotValid
	}

	part, err := s.parts.GetByID(ctx, cert.ParticipantID)
	if err != nil {
		return nil, fmt.Errorf("certificate: load participant: %w", err)
	}
	event, err := s.events.GetByID(ctx, cert.EventID)
	if err != nil {
		return nil, fmt.Errorf("certificate: load event: %w", err)
	}

	metrics.VerifyLookups.WithLabelValues("valid").Inc()
	logger.From(ctx).Debug("token verified",
		logger.Component("certificate"), logger.Token(tok), logger.EventID(cert.EventID))

	return &Verification{
		Valid:           true,
		ParticipantName: part.Name,
		EventName:       event.Name,
		EventDate:       event.Date,
		OrganizerName:   event.OrganizerName,
		InstituteName:   event.InstituteName,
		GeneratedAt:     cert.GeneratedAt,
		Token:           cert.Token,
	}, nil
}
