package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type localSnapshotConfig struct {
	Dir string `json:"dir"`
}

type localSnapshotStore struct {
	dir string
}

func init() {
	RegisterSnapshotStore("local", createLocalSnapshotStore)
}

func createLocalSnapshotStore(args interface{}) (SnapshotStore, error) {
	cfg := &localSnapshotConfig{}
	if err := decodeSnapshotConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("local snapshot dir is required")
	}
	return &localSnapshotStore{dir: cfg.Dir}, nil
}

func (s *localSnapshotStore) Save(ctx context.Context, key string, r io.ReadSeeker, size int64) error {
	_ = ctx
	_ = size
	if strings.Contains(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("invalid snapshot key")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	out, err := os.Create(filepath.Join(s.dir, key))
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return err
	}
	_, err = io.Copy(out, r)
	return err
}
