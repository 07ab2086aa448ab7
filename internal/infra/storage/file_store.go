package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// formato naive que escribía la versión anterior del bot (isoformat sin zona)
const legacyLayout = "2006-01-02T15:04:05.999999"

// FileStore guarda {"cooldown": "<RFC 3339>" | null} en un archivo JSON.
type FileStore struct {
	path string
	mu   sync.Mutex
}

type stateDoc struct {
	Cooldown *string `json:"cooldown"`
}

func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

func (f *FileStore) Save(_ context.Context, till *time.Time) error {
	var doc stateDoc
	if till != nil {
		s := till.Format(time.RFC3339Nano)
		doc.Cooldown = &s
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return writeFileAtomic(f.path, data)
}

// Load devuelve nil si el archivo no existe. Si está roto devuelve nil y el
// error, el caller decide (Cooldown lo trata como "sin cooldown").
func (f *FileStore) Load(_ context.Context) (*time.Time, error) {
	f.mu.Lock()
	data, err := os.ReadFile(f.path)
	f.mu.Unlock()
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}

	var doc stateDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	if doc.Cooldown == nil {
		return nil, nil
	}
	till, err := parseTimestamp(*doc.Cooldown)
	if err != nil {
		return nil, err
	}
	return &till, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(legacyLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cooldown %q: %w", s, err)
	}
	return t, nil
}

// writeFileAtomic escribe en un .tmp, hace fsync y renombra encima del destino.
func writeFileAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	fh, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open temp state: %w", err)
	}
	if _, err := fh.Write(data); err != nil {
		fh.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := fh.Sync(); err != nil {
		fh.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync temp state: %w", err)
	}
	if err := fh.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}
