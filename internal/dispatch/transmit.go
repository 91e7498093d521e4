package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dropDatabas3/certhub/internal/domain/repository"
	"github.com/dropDatabas3/certhub/internal/metrics"
	"github.com/dropDatabas3/certhub/internal/observability/logger"
	"github.com/dropDatabas3/certhub/internal/storage"
)

// SendOne corre la máquina de estados completa para un certificado:
// NOT_SENT → SENDING → {SENT | FAILED}, persistiendo cada transición.
//
// Guard: si el certificado no está GENERATED no hay nada que adjuntar y
// se retorna sin tocar el email status. Lo mismo si el artefacto no
// está en storage: el envío se saltea con un warning, corregir el
// artefacto y reintentar es responsabilidad del operador.
func (s *Service) SendOne(ctx context.Context, certificateID string) error {
	log := logger.From(ctx).With(
		logger.Component("dispatch"),
		logger.CertificateID(certificateID),
	)

	cert, err := s.certs.GetByID(ctx, certificateID)
	if err != nil {
		return fmt.Errorf("dispatch: load certificate: %w", err)
	}
	if cert.GenerationStatus != repository.GenerationGenerated {
		log.Warn("certificate not generated, skipping send",
			logger.String("generation_status", string(cert.GenerationStatus)))
		return nil
	}

	cert.EmailStatus = repository.EmailSending
	if err := s.certs.Update(ctx, cert); err != nil {
		return fmt.Errorf("dispatch: persist SENDING status: %w", err)
	}

	artifact, err := s.storage.Get(ctx, cert.ArtifactPath)
	if errors.Is(err, storage.ErrNotFound) {
		log.Warn("artifact missing in storage, skipping send",
			logger.String("path", cert.ArtifactPath))
		return nil
	}
	if err != nil {
		return s.markFailed(ctx, cert, fmt.Errorf("read artifact: %w", err))
	}

	part, err := s.parts.GetByID(ctx, cert.ParticipantID)
	if err != nil {
		return s.markFailed(ctx, cert, fmt.Errorf("load participant: %w", err))
	}
	event, err := s.events.Get(ctx, cert.EventID)
	if err != nil {
		return s.markFailed(ctx, cert, fmt.Errorf("load event: %w", err))
	}

	banner := s.resolveBanner()
	html, text, err := renderCertificateBodies(part.Name, event.Name, event.Date,
		event.InstituteName, s.signature, bannerCID(banner))
	if err != nil {
		return s.markFailed(ctx, cert, err)
	}

	m := &Mail{
		To:      part.Email,
		Subject: s.subjectPref + "Certificado de participación - " + event.Name,
		HTML:    html,
		Text:    text,
		Attachment: &Attachment{
			Name: filepath.Base(cert.ArtifactPath),
			Data: artifact,
		},
		EmbedPath: banner,
	}

	start := time.Now()
	sendErr := s.sender.Send(m)
	metrics.SendDuration.Observe(time.Since(start).Seconds())

	if sendErr != nil {
		metrics.EmailsSent.WithLabelValues("certificate", "failed").Inc()
		return s.markFailed(ctx, cert, sendErr)
	}

	now := time.Now().UTC()
	cert.EmailStatus = repository.EmailSent
	cert.EmailSentAt = &now
	cert.ErrorMessage = ""
	if err := s.certs.Update(ctx, cert); err != nil {
		return fmt.Errorf("dispatch: persist SENT status: %w", err)
	}
	metrics.EmailsSent.WithLabelValues("certificate", "sent").Inc()
	log.Info("certificate email sent", logger.Email(part.Email))
	return nil
}

// markFailed persiste FAILED con el mensaje y propaga el error original.
func (s *Service) markFailed(ctx context.Context, cert *repository.Certificate, cause error) error {
	cert.EmailStatus = repository.EmailFailed
	cert.ErrorMessage = cause.Error()
	if err := s.certs.Update(ctx, cert); err != nil {
		logger.From(ctx).Error("persist FAILED status failed",
			logger.CertificateID(cert.ID), logger.Err(err))
	}
	return fmt.Errorf("dispatch: send certificate %s: %w", cert.ID, cause)
}

// sendUpdateOne envía un mail de novedades a un participante, con la
// misma máquina de estados pero sobre Participant.UpdateEmailStatus y
// sin adjunto.
func (s *Service) sendUpdateOne(ctx context.Context, participantID, subject, content string) error {
	log := logger.From(ctx).With(
		logger.Component("dispatch"),
		logger.ParticipantID(participantID),
	)

	part, err := s.parts.GetByID(ctx, participantID)
	if err != nil {
		return fmt.Errorf("dispatch: load participant: %w", err)
	}

	if err := s.parts.UpdateEmailStatus(ctx, participantID, repository.EmailSending); err != nil {
		return fmt.Errorf("dispatch: persist SENDING status: %w", err)
	}

	banner := s.resolveBanner()
	html, err := renderUpdateBody(part.Name, content, s.signature, bannerCID(banner))
	if err != nil {
		return err
	}

	m := &Mail{
		To:        part.Email,
		Subject:   s.subjectPref + subject,
		HTML:      html,
		EmbedPath: banner,
	}

	start := time.Now()
	sendErr := s.sender.Send(m)
	metrics.SendDuration.Observe(time.Since(start).Seconds())

	if sendErr != nil {
		metrics.EmailsSent.WithLabelValues("update", "failed").Inc()
		if err := s.parts.UpdateEmailStatus(ctx, participantID, repository.EmailFailed); err != nil {
			log.Error("persist FAILED status failed", logger.Err(err))
		}
		return fmt.Errorf("dispatch: send update to %s: %w", participantID, sendErr)
	}

	if err := s.parts.UpdateEmailStatus(ctx, participantID, repository.EmailSent); err != nil {
		return fmt.Errorf("dispatch: persist SENT status: %w", err)
	}
	metrics.EmailsSent.WithLabelValues("update", "sent").Inc()
	log.Info("update email sent", logger.Email(part.Email))
	return nil
}

// resolveBanner retorna la primera ruta candidata que exista en disco,
// o "" si no hay banner. Nunca es fatal.
func (s *Service) resolveBanner() string {
	for _, p := range s.bannerPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func bannerCID(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}
