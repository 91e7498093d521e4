package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/certhub/internal/audit"
	"github.com/dropDatabas3/certhub/internal/domain/repository"
	"github.com/dropDatabas3/certhub/internal/pool"
	"github.com/dropDatabas3/certhub/internal/storage"
	"github.com/dropDatabas3/certhub/internal/store/memory"
)

// ─── Fakes ───

type fakeSender struct {
	mu      sync.Mutex
	sent    []*Mail
	fail    bool
	gate    chan struct{} // si no es nil, Send bloquea hasta que se cierre
	started chan struct{} // si no es nil, se señala al entrar a Send
	onSend  func(m *Mail)
}

func (f *fakeSender) Send(m *Mail) error {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.onSend != nil {
		f.onSend(m)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("smtp exploded")
	}
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fixture struct {
	store   *memory.Store
	storage *storage.FS
	sender  *fakeSender
	pool    *pool.Pool
	svc     *Service
	eventID string
}

// newFixture arma un evento con n participantes, cada uno con su
// certificado GENERATED y su artefacto en storage.
func newFixture(t *testing.T, n int, poolCfg pool.Config) *fixture {
	t.Helper()

	st := memory.NewStore()
	eventID := st.SeedEvent(repository.Event{
		Name:          "Tech Summit 2026",
		Date:          time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC),
		OrganizerName: "Ada Lovelace",
		InstituteName: "Institute of Computing",
	})

	fs, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < n; i++ {
		pid := st.SeedParticipant(repository.Participant{
			Name:    fmt.Sprintf("Participant %03d", i),
			Email:   fmt.Sprintf("p%03d@example.com", i),
			EventID: eventID,
		})
		path := storage.ArtifactPath("Tech Summit 2026", fmt.Sprintf("Participant %03d", i), pid)
		require.NoError(t, fs.Put(ctx, path, []byte("%PDF-1.3 fake")))

		now := time.Now().UTC()
		cert := &repository.Certificate{
			Token:            fmt.Sprintf("token-%03d", i),
			ParticipantID:    pid,
			EventID:          eventID,
			ArtifactPath:     path,
			GenerationStatus: repository.GenerationGenerated,
			EmailStatus:      repository.EmailNotSent,
			GeneratedAt:      &now,
		}
		require.NoError(t, st.Certificates().Create(ctx, cert))
	}

	sender := &fakeSender{}
	p := pool.New(poolCfg)
	t.Cleanup(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = p.Shutdown(shutdownCtx)
	})

	svc, err := NewService(ServiceConfig{
		Certificates: st.Certificates(),
		Participants: st.Participants(),
		Events:       st.Events(),
		Storage:      fs,
		Sender:       sender,
		Pool:         p,
		Audit:        audit.New(st.Audit()),
		Signature:    "Equipo CertHub",
	})
	require.NoError(t, err)

	return &fixture{store: st, storage: fs, sender: sender, pool: p, svc: svc, eventID: eventID}
}

func drain(t *testing.T, p *pool.Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, p.Shutdown(ctx))
}

func certIDs(t *testing.T, st *memory.Store, eventID string) []string {
	t.Helper()
	certs, err := st.Certificates().ListByEvent(context.Background(), eventID)
	require.NoError(t, err)
	ids := make([]string, len(certs))
	for i, c := range certs {
		ids[i] = c.ID
	}
	return ids
}

// ─── Batch submission ───

func TestSendBatchDeliversAllChunks(t *testing.T) {
	f := newFixture(t, 120, pool.Config{Core: 4, Max: 8, QueueSize: 256})
	ctx := context.Background()

	submitted, err := f.svc.SendBatch(ctx, certIDs(t, f.store, f.eventID))
	require.NoError(t, err)
	require.Equal(t, 120, submitted)

	drain(t, f.pool)
	require.Equal(t, 120, f.sender.count())

	certs, err := f.store.Certificates().ListByEvent(ctx, f.eventID)
	require.NoError(t, err)
	for _, c := range certs {
		require.Equal(t, repository.EmailSent, c.EmailStatus)
		require.NotNil(t, c.EmailSentAt)
	}
}

func TestSendAllSkipsNonGenerated(t *testing.T) {
	f := newFixture(t, 3, pool.Config{Core: 2, Max: 4, QueueSize: 32})
	ctx := context.Background()

	// Un cuarto participante cuyo certificado quedó FAILED.
	pid := f.store.SeedParticipant(repository.Participant{
		Name: "Broken One", Email: "broken@example.com", EventID: f.eventID,
	})
	require.NoError(t, f.store.Certificates().Create(ctx, &repository.Certificate{
		Token:            "token-broken",
		ParticipantID:    pid,
		EventID:          f.eventID,
		GenerationStatus: repository.GenerationFailed,
		EmailStatus:      repository.EmailNotSent,
	}))

	submitted, err := f.svc.SendAll(ctx, f.eventID, "organizer@example.com")
	require.NoError(t, err)
	require.Equal(t, 3, submitted)

	drain(t, f.pool)
	require.Equal(t, 3, f.sender.count())

	entries, err := f.store.Audit().ListByEvent(ctx, f.eventID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "SEND_CERTIFICATES", entries[0].Action)
}

func TestSendBatchSaturation(t *testing.T) {
	f := newFixture(t, 3, pool.Config{Core: 1, Max: 1, QueueSize: 1})
	f.sender.gate = make(chan struct{})
	f.sender.started = make(chan struct{}, 3)
	ctx := context.Background()

	ids := certIDs(t, f.store, f.eventID)

	// Primer envío: entra al worker y bloquea en el transporte.
	submitted, err := f.svc.SendBatch(ctx, ids[:1])
	require.NoError(t, err)
	require.Equal(t, 1, submitted)
	<-f.sender.started

	// Segundo llena la cola; el tercero no tiene dónde ir.
	submitted, err = f.svc.SendBatch(ctx, ids[1:])
	require.Error(t, err)
	require.True(t, Saturated(err), "expected saturation, got %v", err)
	require.Equal(t, 1, submitted)

	close(f.sender.gate)
	<-f.sender.started
	drain(t, f.pool)
}

// ─── Single send state machine ───

func TestSendOneObservesSendingTransition(t *testing.T) {
	f := newFixture(t, 1, pool.Config{Core: 1, Max: 2, QueueSize: 8})
	ctx := context.Background()
	id := certIDs(t, f.store, f.eventID)[0]

	var midSendStatus repository.EmailStatus
	f.sender.onSend = func(m *Mail) {
		c, err := f.store.Certificates().GetByID(ctx, id)
		if err == nil {
			midSendStatus = c.EmailStatus
		}
	}

	require.NoError(t, f.svc.SendOne(ctx, id))
	require.Equal(t, repository.EmailSending, midSendStatus)

	c, err := f.store.Certificates().GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, repository.EmailSent, c.EmailStatus)
	require.NotNil(t, c.EmailSentAt)
}

func TestSendOneGuardsNonGenerated(t *testing.T) {
	f := newFixture(t, 0, pool.Config{Core: 1, Max: 2, QueueSize: 8})
	ctx := context.Background()

	pid := f.store.SeedParticipant(repository.Participant{
		Name: "Pending One", Email: "pending@example.com", EventID: f.eventID,
	})
	cert := &repository.Certificate{
		Token:            "token-pending",
		ParticipantID:    pid,
		EventID:          f.eventID,
		GenerationStatus: repository.GenerationPending,
		EmailStatus:      repository.EmailNotSent,
	}
	require.NoError(t, f.store.Certificates().Create(ctx, cert))

	require.NoError(t, f.svc.SendOne(ctx, cert.ID))
	require.Equal(t, 0, f.sender.count())

	c, err := f.store.Certificates().GetByID(ctx, cert.ID)
	require.NoError(t, err)
	require.Equal(t, repository.EmailNotSent, c.EmailStatus)
}

func TestSendOneMissingArtifactSkips(t *testing.T) {
	f := newFixture(t, 1, pool.Config{Core: 1, Max: 2, QueueSize: 8})
	ctx := context.Background()
	id := certIDs(t, f.store, f.eventID)[0]

	c, err := f.store.Certificates().GetByID(ctx, id)
	require.NoError(t, err)
	require.NoError(t, f.storage.Delete(ctx, c.ArtifactPath))

	require.NoError(t, f.svc.SendOne(ctx, id))
	require.Equal(t, 0, f.sender.count())
}

func TestSendOneTransportFailure(t *testing.T) {
	f := newFixture(t, 1, pool.Config{Core: 1, Max: 2, QueueSize: 8})
	f.sender.fail = true
	ctx := context.Background()
	id := certIDs(t, f.store, f.eventID)[0]

	err := f.svc.SendOne(ctx, id)
	require.Error(t, err)

	c, err := f.store.Certificates().GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, repository.EmailFailed, c.EmailStatus)
	require.Contains(t, c.ErrorMessage, "smtp exploded")
	require.Nil(t, c.EmailSentAt)
}

func TestSendOneMailContents(t *testing.T) {
	f := newFixture(t, 1, pool.Config{Core: 1, Max: 2, QueueSize: 8})
	ctx := context.Background()
	id := certIDs(t, f.store, f.eventID)[0]

	require.NoError(t, f.svc.SendOne(ctx, id))
	require.Equal(t, 1, f.sender.count())

	m := f.sender.sent[0]
	require.Equal(t, "p000@example.com", m.To)
	require.Contains(t, m.Subject, "Tech Summit 2026")
	require.Contains(t, m.HTML, "Participant 000")
	require.Contains(t, m.HTML, "Equipo CertHub")
	require.NotNil(t, m.Attachment)
	require.Contains(t, m.Attachment.Name, ".pdf")
	require.Equal(t, []byte("%PDF-1.3 fake"), m.Attachment.Data)
}

// ─── Update emails ───

func TestSendUpdatesRunsRosterStateMachine(t *testing.T) {
	f := newFixture(t, 3, pool.Config{Core: 2, Max: 4, QueueSize: 32})
	ctx := context.Background()

	submitted, err := f.svc.SendUpdates(ctx, f.eventID,
		"Cambio de sede", "<p>El evento se muda al auditorio principal.</p>", "organizer@example.com")
	require.NoError(t, err)
	require.Equal(t, 3, submitted)

	drain(t, f.pool)
	require.Equal(t, 3, f.sender.count())

	for _, m := range f.sender.sent {
		require.Contains(t, m.Subject, "Cambio de sede")
		require.Contains(t, m.HTML, "auditorio principal")
		require.Nil(t, m.Attachment)
	}

	roster, err := f.store.Participants().ListByEvent(ctx, f.eventID)
	require.NoError(t, err)
	for _, p := range roster {
		require.Equal(t, repository.EmailSent, p.UpdateEmailStatus)
	}
}

func TestSendUpdatesRequiresSubject(t *testing.T) {
	f := newFixture(t, 1, pool.Config{Core: 1, Max: 2, QueueSize: 8})
	_, err := f.svc.SendUpdates(context.Background(), f.eventID, "", "<p>hi</p>", "organizer@example.com")
	if !errors.Is(err, repository.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
