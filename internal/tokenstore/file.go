package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type fileRecord struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

// FileStore keeps the bearer token in a single JSON file readable only by
// the current user.
type FileStore struct {
	Path string
}

func (s FileStore) Load(_ context.Context) (string, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read token file: %w", err)
	}
	var rec fileRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return "", fmt.Errorf("parse token file %s: %w", s.Path, err)
	}
	return rec.Token, nil
}

func (s FileStore) Save(_ context.Context, token string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(fileRecord{Token: token, SavedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(s.Path, b, 0o600)
}

func (s FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

func (s FileStore) Describe() string {
	return "file:" + s.Path
}
