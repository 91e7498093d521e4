package certificate

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/certhub/internal/domain/repository"
	"github.com/dropDatabas3/certhub/internal/metrics"
	"github.com/dropDatabas3/certhub/internal/observability/logger"
	"github.com/dropDatabas3/certhub/internal/storage"
)

// Tamaño en píxeles del QR pre-renderizado que se le pasa al renderer.
const qrPixels = 200

// GenerateAll genera el certificado de cada participante del evento.
//
// Es idempotente por participante: los que ya tienen un certificado
// GENERATED se saltean, y cualquier fila PENDING/FAILED previa se borra
// (su token se descarta) antes de crear la nueva. La falla de un
// participante nunca aborta el batch: queda FAILED con mensaje y se
// sigue con el próximo. Re-invocar después de una falla parcial solo
// (re)procesa los que todavía no llegaron a GENERATED.
//
// La autorización del actor sobre el evento se resuelve afuera; actor
// llega ya validado y se usa solo para el audit log.
func (s *Service) GenerateAll(ctx context.Context, eventID, actor string) error {
	log := logger.From(ctx).With(
		logger.Component("certificate"),
		logger.Op("GenerateAll"),
		logger.EventID(eventID),
	)

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("certificate: load event: %w", err)
	}

	roster, err := s.parts.ListByEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("certificate: load roster: %w", err)
	}
	if len(roster) == 0 {
		return ErrEmptyRoster
	}

	// Template custom del evento, si hay. Ausencia no es error: el
	// renderer usa el default embebido.
	var template []byte
	if s.templates != nil {
		if t, err := s.templates.GetByEvent(ctx, eventID); err == nil {
			template = t.ImageData
		} else if !repository.IsNotFound(err) {
			return fmt.Errorf("certificate: load template: %w", err)
		}
	}

	// Snapshot único de certificados existentes para no ir al repo por
	// cada participante.
	existing, err := s.certs.ListByEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("certificate: snapshot certificates: %w", err)
	}
	byParticipant := make(map[string][]repository.Certificate, len(existing))
	for _, c := range existing {
		byParticipant[c.ParticipantID] = append(byParticipant[c.ParticipantID], c)
	}

	var generated, skipped, failed int
	for _, p := range roster {
		prior := byParticipant[p.ID]

		if hasGenerated(prior) {
			log.Debug("certificate already generated, skipping",
				logger.ParticipantID(p.ID))
			metrics.CertificatesGenerated.WithLabelValues("skipped").Inc()
			skipped++
			continue
		}

		// Borrar filas PENDING/FAILED previas: sus tokens se descartan.
		for _, old := range prior {
			if err := s.certs.Delete(ctx, old.ID); err != nil && !repository.IsNotFound(err) {
				log.Warn("delete stale certificate failed",
					logger.CertificateID(old.ID), logger.Err(err))
			}
		}

		cert := &repository.Certificate{
			Token:            s.issuer.Issue(),
			ParticipantID:    p.ID,
			EventID:          eventID,
			GenerationStatus: repository.GenerationPending,
			EmailStatus:      repository.EmailNotSent,
		}
		if err := s.certs.Create(ctx, cert); err != nil {
			log.Error("create pending certificate failed",
				logger.ParticipantID(p.ID), logger.Err(err))
			failed++
			continue
		}

		if err := s.generateOne(ctx, cert, event, p, template); err != nil {
			cert.GenerationStatus = repository.GenerationFailed
			cert.ErrorMessage = err.Error()
			if uerr := s.certs.Update(ctx, cert); uerr != nil {
				log.Error("persist FAILED status failed",
					logger.CertificateID(cert.ID), logger.Err(uerr))
			}
			log.Error("certificate generation failed",
				logger.ParticipantID(p.ID), logger.Err(err))
			metrics.CertificatesGenerated.WithLabelValues("failed").Inc()
			failed++
			continue
		}

		log.Info("certificate generated",
			logger.ParticipantID(p.ID),
			logger.CertificateID(cert.ID),
			logger.Token(cert.Token),
		)
		metrics.CertificatesGenerated.WithLabelValues("generated").Inc()
		generated++
	}

	s.audit.Action(ctx, eventID, actor, "GENERATE_CERTIFICATES",
		fmt.Sprintf("generated=%d skipped=%d failed=%d", generated, skipped, failed))

	log.Info("generation batch finished",
		logger.Int("generated", generated),
		logger.Int("skipped", skipped),
		logger.Int("failed", failed),
	)
	return nil
}

// generateOne intenta render + storage + update a GENERATED. Cualquier
// error deja la decisión de status al caller; acá no se persiste nada
// parcial.
func (s *Service) generateOne(ctx context.Context, cert *repository.Certificate,
	event *repository.Event, p repository.Participant, template []byte) error {

	qrImg, err := s.qr(s.VerificationURL(cert.Token), qrPixels)
	if err != nil {
		return fmt.Errorf("qr: %w", err)
	}

	artifact, err := s.renderer.Render(template, p.Name, qrImg)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	path := storage.ArtifactPath(event.Name, p.Name, p.ID)
	if err := s.storage.Put(ctx, path, artifact); err != nil {
		return fmt.Errorf("store artifact: %w", err)
	}

	now := nowUTC()
	cert.ArtifactPath = path
	cert.GenerationStatus = repository.GenerationGenerated
	cert.GeneratedAt = &now
	cert.ErrorMessage = ""
	if err := s.certs.Update(ctx, cert); err != nil {
		return fmt.Errorf("persist GENERATED status: %w", err)
	}
	return nil
}

func hasGenerated(certs []repository.Certificate) bool {
	for _, c := range certs {
		if c.GenerationStatus == repository.GenerationGenerated {
			return true
		}
	}
	return false
}
