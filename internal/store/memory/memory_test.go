package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/certhub/internal/domain/repository"
)

func TestStore_TokenUniqueness(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	c1 := &repository.Certificate{Token: "tok-1", ParticipantID: "p1", EventID: "e1",
		GenerationStatus: repository.GenerationPending, EmailStatus: repository.EmailNotSent}
	require.NoError(t, s.Certificates().Create(ctx, c1))

	dup := &repository.Certificate{Token: "tok-1", ParticipantID: "p2", EventID: "e1"}
	err := s.Certificates().Create(ctx, dup)
	require.True(t, repository.IsConflict(err))
}

func TestStore_TokenImmutableOnUpdate(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	c := &repository.Certificate{Token: "tok-1", ParticipantID: "p1", EventID: "e1",
		GenerationStatus: repository.GenerationPending, EmailStatus: repository.EmailNotSent}
	require.NoError(t, s.Certificates().Create(ctx, c))

	c.Token = "tampered"
	c.GenerationStatus = repository.GenerationGenerated
	require.NoError(t, s.Certificates().Update(ctx, c))

	got, err := s.Certificates().GetByToken(ctx, "tok-1")
	require.NoError(t, err)
	require.Equal(t, repository.GenerationGenerated, got.GenerationStatus)

	_, err = s.Certificates().GetByToken(ctx, "tampered")
	require.True(t, repository.IsNotFound(err))
}

func TestStore_RosterOrder(t *testing.T) {
	s := NewStore()
	eventID := s.SeedEvent(repository.Event{Name: "Ev", Date: time.Now()})
	for _, name := range []string{"a", "b", "c"} {
		s.SeedParticipant(repository.Participant{Name: name, Email: name + "@x.com", EventID: eventID})
	}

	parts, err := s.Participants().ListByEvent(context.Background(), eventID)
	require.NoError(t, err)
	require.Len(t, parts, 3)
	require.Equal(t, "a", parts[0].Name)
	require.Equal(t, "b", parts[1].Name)
	require.Equal(t, "c", parts[2].Name)
}

func TestStore_EventDeleteCascades(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	eventID := s.SeedEvent(repository.Event{Name: "Ev"})
	pid := s.SeedParticipant(repository.Participant{Name: "a", Email: "a@x.com", EventID: eventID})
	require.NoError(t, s.Certificates().Create(ctx, &repository.Certificate{
		Token: "tok", ParticipantID: pid, EventID: eventID,
		GenerationStatus: repository.GenerationGenerated, EmailStatus: repository.EmailNotSent,
	}))
	require.NoError(t, s.Templates().Upsert(ctx, &repository.Template{EventID: eventID, ImageData: []byte{1}}))

	require.NoError(t, s.Events().Delete(ctx, eventID))

	certs, err := s.Certificates().ListByEvent(ctx, eventID)
	require.NoError(t, err)
	require.Empty(t, certs)

	_, err = s.Participants().GetByID(ctx, pid)
	require.True(t, repository.IsNotFound(err))

	_, err = s.Templates().GetByEvent(ctx, eventID)
	require.True(t, repository.IsNotFound(err))
}

func TestStore_UpdateEmailStatus(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	eventID := s.SeedEvent(repository.Event{Name: "Ev"})
	pid := s.SeedParticipant(repository.Participant{Name: "a", Email: "a@x.com", EventID: eventID})

	require.NoError(t, s.Participants().UpdateEmailStatus(ctx, pid, repository.EmailSending))
	p, err := s.Participants().GetByID(ctx, pid)
	require.NoError(t, err)
	require.Equal(t, repository.EmailSending, p.UpdateEmailStatus)
}
