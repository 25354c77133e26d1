// Package avatar validates uploaded profile images and hands them to a blob
// store. It runs on request goroutines and never touches room state.
package avatar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/cwrk-planet/room-chat/internal/domain"
	"github.com/cwrk-planet/room-chat/internal/security"

	"github.com/gabriel-vasile/mimetype"
)

const DefaultMaxBytes = 2 << 20

var (
	ErrNotFound = fmt.Errorf("avatar %w", domain.ErrNotFound)

	ErrTooLarge    = fmt.Errorf("%w: avatar too large", domain.ErrValidation)
	ErrEmpty       = fmt.Errorf("%w: avatar file required", domain.ErrValidation)
	ErrUnsupported = fmt.Errorf("%w: avatar must be png, jpeg or webp", domain.ErrValidation)
)

// allowed: sniffed mime type -> file extension.
var allowed = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

var idPattern = regexp.MustCompile(`^[0-9a-f]{32}\.(png|jpg|webp)$`)

type Blob struct {
	ID          string
	ContentType string
	Data        []byte
}

type Store interface {
	Put(ctx context.Context, b Blob) error
	Get(ctx context.Context, id string) (Blob, error)
}

type Config struct {
	MaxBytes      int64
	PublicBaseURL string
}

type Service struct {
	store    Store
	maxBytes int64
	baseURL  string
}

func NewService(store Store, cfg Config) *Service {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	return &Service{
		store:    store,
		maxBytes: cfg.MaxBytes,
		baseURL:  strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
}

func (s *Service) MaxBytes() int64 { return s.maxBytes }

// Upload validates r and stores it. The id is content-addressed, so the same
// image uploaded twice yields the same URL.
func (s *Service) Upload(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read avatar: %w", err)
	}
	switch {
	case len(data) == 0:
		return "", ErrEmpty
	case int64(len(data)) > s.maxBytes:
		return "", ErrTooLarge
	}

	ct, ext, ok := sniff(data)
	if !ok {
		return "", ErrUnsupported
	}

	id := security.SHA256Hex(data)[:32] + ext
	if err := s.store.Put(ctx, Blob{ID: id, ContentType: ct, Data: data}); err != nil {
		return "", fmt.Errorf("store avatar: %w", err)
	}

	return s.URL(id), nil
}

func (s *Service) Open(ctx context.Context, id string) (Blob, error) {
	if !ValidID(id) {
		return Blob{}, ErrNotFound
	}
	b, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Blob{}, err
		}
		return Blob{}, fmt.Errorf("load avatar %s: %w", id, err)
	}
	return b, nil
}

func (s *Service) URL(id string) string {
	return s.baseURL + "/avatars/" + id
}

// ValidID reports whether id has the shape Upload produces. It keeps
// arbitrary paths away from the stores.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// ContentTypeOf derives the mime type from an id's extension.
func ContentTypeOf(id string) string {
	for ct, ext := range allowed {
		if strings.HasSuffix(id, ext) {
			return ct
		}
	}
	return "application/octet-stream"
}

func sniff(data []byte) (contentType, ext string, ok bool) {
	mt := mimetype.Detect(data)
	for m := mt; m != nil; m = m.Parent() {
		if e, found := allowed[m.String()]; found {
			return m.String(), e, true
		}
	}
	return "", "", false
}
