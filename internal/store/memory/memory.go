// Package memory implementa los repositorios del dominio sobre maps en
// memoria. Útil para desarrollo y testing; el driver de producción es
// internal/store/pg.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/certhub/internal/domain/repository"
)

// Store contiene los datos y expone un view por repositorio del dominio.
type Store struct {
	mu           sync.RWMutex
	certificates map[string]repository.Certificate
	participants map[string]repository.Participant
	events       map[string]repository.Event
	templates    map[string]repository.Template // key: eventID
	audit        []repository.AuditEntry

	// orden de inserción de participantes por evento (orden de roster)
	rosterOrder map[string][]string
}

// NewStore crea un Store vacío.
func NewStore() *Store {
	return &Store{
		certificates: make(map[string]repository.Certificate),
		participants: make(map[string]repository.Participant),
		events:       make(map[string]repository.Event),
		templates:    make(map[string]repository.Template),
		rosterOrder:  make(map[string][]string),
	}
}

// Certificates retorna el view de CertificateRepository.
func (s *Store) Certificates() repository.CertificateRepository { return certRepo{s} }

// Participants retorna el view de ParticipantRepository.
func (s *Store) Participants() repository.ParticipantRepository { return participantRepo{s} }

// Events retorna el view de EventRepository.
func (s *Store) Events() repository.EventRepository { return eventRepo{s} }

// Templates retorna el view de TemplateRepository.
func (s *Store) Templates() repository.TemplateRepository { return templateRepo{s} }

// Audit retorna el view de AuditRepository.
func (s *Store) Audit() repository.AuditRepository { return auditRepo{s} }

// ─── Seeding (dev/tests) ───

// SeedEvent inserta un evento y retorna su id.
func (s *Store) SeedEvent(e repository.Event) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.events[e.ID] = e
	return e.ID
}

// SeedParticipant inserta un participante y retorna su id.
func (s *Store) SeedParticipant(p repository.Participant) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.UpdateEmailStatus == "" {
		p.UpdateEmailStatus = repository.EmailNotSent
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.participants[p.ID] = p
	s.rosterOrder[p.EventID] = append(s.rosterOrder[p.EventID], p.ID)
	return p.ID
}

// ─── CertificateRepository ───

type certRepo struct{ s *Store }

func (r certRepo) Create(ctx context.Context, c *repository.Certificate) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.certificates {
		if existing.Token == c.Token {
			return repository.ErrConflict
		}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.certificates[c.ID] = *c
	return nil
}

func (r certRepo) Update(ctx context.Context, c *repository.Certificate) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.certificates[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	// el token es inmutable una vez emitido
	c.Token = cur.Token
	c.CreatedAt = cur.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	s.certificates[c.ID] = *c
	return nil
}

func (r certRepo) GetByID(ctx context.Context, id string) (*repository.Certificate, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.certificates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := c
	return &out, nil
}

func (r certRepo) GetByToken(ctx context.Context, token string) (*repository.Certificate, error) {
	if token == "" {
		return nil, repository.ErrNotFound
	}
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.certificates {
		if c.Token == token {
			out := c
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r certRepo) ListByEvent(ctx context.Context, eventID string) ([]repository.Certificate, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []repository.Certificate
	for _, c := range s.certificates {
		if c.EventID == eventID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r certRepo) Delete(ctx context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.certificates[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.certificates, id)
	return nil
}

func (r certRepo) DeleteByEvent(ctx context.Context, eventID string) (int, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteCertsByEventLocked(eventID), nil
}

func (s *Store) deleteCertsByEventLocked(eventID string) int {
	n := 0
	for id, c := range s.certificates {
		if c.EventID == eventID {
			delete(s.certificates, id)
			n++
		}
	}
	return n
}

// ─── ParticipantRepository ───

type participantRepo struct{ s *Store }

func (r participantRepo) GetByID(ctx context.Context, id string) (*repository.Participant, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := p
	return &out, nil
}

func (r participantRepo) ListByEvent(ctx context.Context, eventID string) ([]repository.Participant, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.rosterOrder[eventID]
	out := make([]repository.Participant, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.participants[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r participantRepo) UpdateEmailStatus(ctx context.Context, id string, status repository.EmailStatus) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.UpdateEmailStatus = status
	s.participants[id] = p
	return nil
}

// ─── EventRepository ───

type eventRepo struct{ s *Store }

func (r eventRepo) GetByID(ctx context.Context, id string) (*repository.Event, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := e
	return &out, nil
}

func (r eventRepo) Delete(ctx context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.events, id)
	// cascade: certificados, participantes y template del evento
	s.deleteCertsByEventLocked(id)
	for pid, p := range s.participants {
		if p.EventID == id {
			delete(s.participants, pid)
		}
	}
	delete(s.rosterOrder, id)
	delete(s.templates, id)
	return nil
}

// ─── TemplateRepository ───

type templateRepo struct{ s *Store }

func (r templateRepo) GetByEvent(ctx context.Context, eventID string) (*repository.Template, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[eventID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := t
	return &out, nil
}

func (r templateRepo) Upsert(ctx context.Context, t *repository.Template) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	s.templates[t.EventID] = *t
	return nil
}

// ─── AuditRepository ───

type auditRepo struct{ s *Store }

func (r auditRepo) Append(ctx context.Context, e *repository.AuditEntry) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	s.audit = append(s.audit, *e)
	return nil
}

func (r auditRepo) ListByEvent(ctx context.Context, eventID string) ([]repository.AuditEntry, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []repository.AuditEntry
	for _, e := range s.audit {
		if e.EventID == eventID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}
