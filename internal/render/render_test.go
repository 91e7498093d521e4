package render

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender_DefaultTemplate(t *testing.T) {
	r, err := New(Config{})
	require.NoError(t, err)

	qr, err := QR("https://example.com/verify/abc", 200)
	require.NoError(t, err)

	pdf, err := r.Render(nil, "Ana María López", qr)
	require.NoError(t, err)
	require.NotEmpty(t, pdf)
	// un PDF válido arranca con %PDF-
	require.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")), "output is not a PDF")
}

func TestRender_CustomTemplate(t *testing.T) {
	r, err := New(Config{})
	require.NoError(t, err)

	pdf, err := r.Render(DefaultTemplate(), "Someone", nil)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}

func TestRender_BadTemplate(t *testing.T) {
	r, err := New(Config{})
	require.NoError(t, err)

	_, err = r.Render([]byte("definitely not an image"), "Someone", nil)
	require.True(t, errors.Is(err, ErrBadTemplate), "got: %v", err)
}

func TestRender_EmptyName(t *testing.T) {
	r, err := New(Config{})
	require.NoError(t, err)

	_, err = r.Render(nil, "", nil)
	require.Error(t, err)
}

func TestRender_ConcurrentShared(t *testing.T) {
	r, err := New(Config{})
	require.NoError(t, err)

	// El Renderer se comparte a nivel proceso; varios batches pueden
	// renderizar en paralelo sobre la misma instancia.
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pdf, err := r.Render(nil, fmt.Sprintf("Participante Número %02d", i), nil)
			if err == nil && !bytes.HasPrefix(pdf, []byte("%PDF-")) {
				err = errors.New("output is not a PDF")
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		require.NoError(t, err, "goroutine %d", i)
	}
}

func TestQR_Size(t *testing.T) {
	img, err := QR("https://example.com/verify/tok", 200)
	require.NoError(t, err)
	require.Equal(t, 200, img.Bounds().Dx())
	require.Equal(t, 200, img.Bounds().Dy())
}

func TestDefaultTemplate_IsCopy(t *testing.T) {
	a := DefaultTemplate()
	a[0] = 0
	b := DefaultTemplate()
	require.NotEqual(t, a[0], b[0], "DefaultTemplate must return a copy")
}
