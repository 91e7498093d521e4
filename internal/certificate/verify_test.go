package certificate

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/certhub/internal/domain/repository"
)

func TestVerifyUnknownToken(t *testing.T) {
	f := newFixture(t, 1)

	_, err := f.svc.Verify(context.Background(), "does-not-exist")
	require.True(t, repository.IsNotFound(err), "expected not found, got %v", err)
}

func TestVerifyNotGenerated(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	parts, err := f.store.Participants().ListByEvent(ctx, f.eventID)
	require.NoError(t, err)
	cert := &repository.Certificate{
		Token:            "half-baked",
		ParticipantID:    parts[0].ID,
		EventID:          f.eventID,
		GenerationStatus: repository.GenerationFailed,
		EmailStatus:      repository.EmailNotSent,
	}
	require.NoError(t, f.store.Certificates().Create(ctx, cert))

	_, err = f.svc.Verify(ctx, "half-baked")
	require.ErrorIs(t, err, ErrNotValid)
}

func TestVerifyPublishesFacts(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	require.NoError(t, f.svc.GenerateAll(ctx, f.eventID, "organizer@example.com"))
	certs, err := f.store.Certificates().ListByEvent(ctx, f.eventID)
	require.NoError(t, err)

	v, err := f.svc.Verify(ctx, certs[0].Token)
	require.NoError(t, err)
	require.True(t, v.Valid)
	require.Equal(t, "Participant 00", v.ParticipantName)
	require.Equal(t, "Tech Summit 2026", v.EventName)
	require.Equal(t, "Ada Lovelace", v.OrganizerName)
	require.Equal(t, "Institute of Computing", v.InstituteName)
	require.NotNil(t, v.GeneratedAt)
	require.Equal(t, certs[0].Token, v.Token)
}

func TestVerificationURL(t *testing.T) {
	f := newFixture(t, 0)
	got := f.svc.VerificationURL("abc123")
	if got != "https://certs.example.com/verify/abc123" {
		t.Fatalf("unexpected URL %q", got)
	}
}

func TestDownloadAllBundlesOnlyGenerated(t *testing.T) {
	f := newFixture(t, 3)
	f.renderer.failFor = "Participant 01"
	ctx := context.Background()

	require.NoError(t, f.svc.GenerateAll(ctx, f.eventID, "organizer@example.com"))

	data, err := f.svc.DownloadAll(ctx, f.eventID)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	for _, entry := range zr.File {
		require.NotContains(t, entry.Name, "Participant_01")
	}
}

func TestDownloadAllSkipsMissingArtifacts(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	require.NoError(t, f.svc.GenerateAll(ctx, f.eventID, "organizer@example.com"))

	certs, err := f.store.Certificates().ListByEvent(ctx, f.eventID)
	require.NoError(t, err)
	require.NoError(t, f.storage.Delete(ctx, certs[0].ArtifactPath))

	data, err := f.svc.DownloadAll(ctx, f.eventID)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
}
