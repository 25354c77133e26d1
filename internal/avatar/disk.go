package avatar

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DiskStore keeps avatars as plain files named by id.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create avatar dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (d *DiskStore) Put(_ context.Context, b Blob) error {
	dst := filepath.Join(d.dir, b.ID)
	if _, err := os.Stat(dst); err == nil {
		return nil
	}

	// запись через временный файл, чтобы читатель не увидел половину картинки
	tmp, err := os.CreateTemp(d.dir, ".upload-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(b.Data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

func (d *DiskStore) Get(_ context.Context, id string) (Blob, error) {
	data, err := os.ReadFile(filepath.Join(d.dir, filepath.Base(id)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Blob{}, ErrNotFound
		}
		return Blob{}, err
	}
	return Blob{ID: id, ContentType: ContentTypeOf(id), Data: data}, nil
}
