// Package certificate implementa el núcleo del pipeline: la generación
// idempotente de certificados por participante y la verificación pública
// por token.
package certificate

import (
	"errors"
	"fmt"
	"image"

	"github.com/dropDatabas3/certhub/internal/audit"
	"github.com/dropDatabas3/certhub/internal/domain/repository"
	"github.com/dropDatabas3/certhub/internal/render"
	"github.com/dropDatabas3/certhub/internal/storage"
	"github.com/dropDatabas3/certhub/internal/token"
)

// ─── Errors ───

var (
	// ErrEmptyRoster indica que el evento no tiene participantes.
	ErrEmptyRoster = errors.New("certificate: event has no participants")

	// ErrNotValid indica que el token existe pero el certificado no está
	// en estado GENERATED.
	ErrNotValid = errors.New("certificate: certificate is not valid")
)

// ArtifactRenderer es el contrato que este service necesita del renderer.
type ArtifactRenderer interface {
	Render(template []byte, participantName string, qr image.Image) ([]byte, error)
}

// QRFunc genera la imagen QR para un contenido dado.
type QRFunc func(content string, size int) (image.Image, error)

// ─── Configuration ───

// ServiceConfig contiene los colaboradores del service.
type ServiceConfig struct {
	Certificates repository.CertificateRepository
	Participants repository.ParticipantRepository
	Events       repository.EventRepository
	Templates    repository.TemplateRepository

	Storage  storage.Store
	Renderer ArtifactRenderer
	QR       QRFunc // default: render.QR
	Issuer   token.Issuer
	Audit    *audit.Logger

	// BaseURL del frontend público; los QR codifican
	// <BaseURL>/verify/<token>.
	BaseURL string
}

// ─── Implementation ───

// Service orquesta generación, listado de estado, descargas y
// verificación.
type Service struct {
	certs     repository.CertificateRepository
	parts     repository.ParticipantRepository
	events    repository.EventRepository
	templates repository.TemplateRepository
	storage   storage.Store
	renderer  ArtifactRenderer
	qr        QRFunc
	issuer    token.Issuer
	audit     *audit.Logger
	baseURL   string
}

// NewService crea una nueva instancia del service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Certificates == nil || cfg.Participants == nil || cfg.Events == nil {
		return nil, fmt.Errorf("certificate: repositories are required")
	}
	if cfg.Storage == nil {
		return nil, fmt.Errorf("certificate: storage is required")
	}
	if cfg.Renderer == nil {
		return nil, fmt.Errorf("certificate: renderer is required")
	}
	if cfg.Issuer == nil {
		cfg.Issuer = token.UUIDIssuer{}
	}
	if cfg.QR == nil {
		cfg.QR = render.QR
	}
	if cfg.Audit == nil {
		cfg.Audit = audit.New(nil)
	}
	return &Service{
		certs:     cfg.Certificates,
		parts:     cfg.Participants,
		events:    cfg.Events,
		templates: cfg.Templates,
		storage:   cfg.Storage,
		renderer:  cfg.Renderer,
		qr:        cfg.QR,
		issuer:    cfg.Issuer,
		audit:     cfg.Audit,
		baseURL:   cfg.BaseURL,
	}, nil
}

// VerificationURL arma la URL pública que codifica el QR.
func (s *Service) VerificationURL(tok string) string {
	return s.baseURL + "/verify/" + tok
}
