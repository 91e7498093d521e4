package dispatch

import (
	"fmt"

	"github.com/dropDatabas3/certhub/internal/audit"
	"github.com/dropDatabas3/certhub/internal/domain/repository"
	"github.com/dropDatabas3/certhub/internal/pool"
	"github.com/dropDatabas3/certhub/internal/storage"
)

// Attachment es un adjunto en memoria.
type Attachment struct {
	Name string
	Data []byte
}

// Mail es un mensaje listo para transporte.
type Mail struct {
	To      string
	Subject string
	HTML    string
	Text    string

	// Attachment opcional (el PDF del certificado).
	Attachment *Attachment

	// EmbedPath es la ruta en disco de una imagen inline opcional,
	// referenciada desde el HTML por cid con su basename.
	EmbedPath string
}

// Sender es el transporte de salida. La implementación de producción
// es SMTPSender; los tests inyectan fakes.
type Sender interface {
	Send(m *Mail) error
}

// ─── Configuration ───

// ServiceConfig contiene las dependencias del Scheduler.
type ServiceConfig struct {
	Certificates repository.CertificateRepository
	Participants repository.ParticipantRepository
	Events       repository.EventRepository
	Storage      storage.Store
	Sender       Sender
	Pool         *pool.Pool
	Audit        *audit.Logger

	// ChunkSize es el tamaño de los lotes de submission. Default: 50.
	ChunkSize int

	// SubjectPrefix se antepone a todos los asuntos, ej "[CertHub] ".
	SubjectPrefix string

	// Signature cierra el cuerpo de los mails.
	Signature string

	// BannerPaths son rutas candidatas del banner institucional. Se usa
	// la primera que exista; que no exista ninguna no es error.
	BannerPaths []string
}

const defaultChunkSize = 50

// ─── Implementation ───

// Service es el scheduler de envíos.
type Service struct {
	certs       repository.CertificateRepository
	parts       repository.ParticipantRepository
	storage     storage.Store
	sender      Sender
	pool        *pool.Pool
	audit       *audit.Logger
	events      *eventCache
	chunkSize   int
	subjectPref string
	signature   string
	bannerPaths []string
}

// NewService crea una nueva instancia del scheduler.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Certificates == nil || cfg.Participants == nil || cfg.Events == nil {
		return nil, fmt.Errorf("dispatch: repositories are required")
	}
	if cfg.Storage == nil {
		return nil, fmt.Errorf("dispatch: storage is required")
	}
	if cfg.Sender == nil {
		return nil, fmt.Errorf("dispatch: sender is required")
	}
	if cfg.Pool == nil {
		return nil, fmt.Errorf("dispatch: pool is required")
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.Audit == nil {
		cfg.Audit = audit.New(nil)
	}
	return &Service{
		certs:       cfg.Certificates,
		parts:       cfg.Participants,
		storage:     cfg.Storage,
		sender:      cfg.Sender,
		pool:        cfg.Pool,
		audit:       cfg.Audit,
		events:      newEventCache(cfg.Events),
		chunkSize:   cfg.ChunkSize,
		subjectPref: cfg.SubjectPrefix,
		signature:   cfg.Signature,
		bannerPaths: cfg.BannerPaths,
	}, nil
}
