package avatar

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/cwrk-planet/room-chat/internal/domain"
	"github.com/cwrk-planet/room-chat/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngData  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR"), make([]byte, 32)...)
	jpegData = append([]byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, make([]byte, 32)...)
	webpData = append([]byte("RIFF\x24\x00\x00\x00WEBPVP8 "), make([]byte, 32)...)
	gifData  = append([]byte("GIF89a"), make([]byte, 32)...)
)

func newTestService(t *testing.T, max int64) (*Service, *DiskStore) {
	t.Helper()
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	return NewService(store, Config{MaxBytes: max, PublicBaseURL: "https://cdn.example.com/"}), store
}

func TestUpload_AllowedTypes(t *testing.T) {
	svc, _ := newTestService(t, 0)
	ctx := context.Background()

	cases := map[string]struct {
		data []byte
		ct   string
		ext  string
	}{
		"png":  {pngData, "image/png", ".png"},
		"jpeg": {jpegData, "image/jpeg", ".jpg"},
		"webp": {webpData, "image/webp", ".webp"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			url, err := svc.Upload(ctx, bytes.NewReader(tc.data))
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(url, "https://cdn.example.com/avatars/"))
			assert.True(t, strings.HasSuffix(url, tc.ext))

			id := strings.TrimPrefix(url, "https://cdn.example.com/avatars/")
			blob, err := svc.Open(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, tc.ct, blob.ContentType)
			assert.Equal(t, tc.data, blob.Data)
		})
	}
}

func TestUpload_ContentAddressed(t *testing.T) {
	svc, _ := newTestService(t, 0)
	ctx := context.Background()

	first, err := svc.Upload(ctx, bytes.NewReader(pngData))
	require.NoError(t, err)
	second, err := svc.Upload(ctx, bytes.NewReader(pngData))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestUpload_Rejects(t *testing.T) {
	svc, _ := newTestService(t, 64)
	ctx := context.Background()

	_, err := svc.Upload(ctx, bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = svc.Upload(ctx, bytes.NewReader(append(slices.Clone(pngData), make([]byte, 64)...)))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = svc.Upload(ctx, bytes.NewReader(gifData))
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = svc.Upload(ctx, strings.NewReader("just some text"))
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))
}

func TestOpen_NotFound(t *testing.T) {
	svc, _ := newTestService(t, 0)
	ctx := context.Background()

	_, err := svc.Open(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Open(ctx, strings.Repeat("a", 32)+".png")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestContentTypeOf(t *testing.T) {
	assert.Equal(t, "image/webp", ContentTypeOf("x.webp"))
	assert.Equal(t, "image/jpeg", ContentTypeOf("x.jpg"))
	assert.Equal(t, "application/octet-stream", ContentTypeOf("x.gif"))
}
