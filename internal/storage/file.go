package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
)

// FileBackend stores each payload as a JSON file at its artifact path.
type FileBackend struct{}

// NewFileBackend creates a FileBackend.
func NewFileBackend() *FileBackend {
	return &FileBackend{}
}

func (b *FileBackend) Load(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(key)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (b *FileBackend) Put(_ context.Context, key string, payload []byte) error {
	return writeFileAtomic(key, payload)
}

func (b *FileBackend) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(key)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (b *FileBackend) Close() error { return nil }
