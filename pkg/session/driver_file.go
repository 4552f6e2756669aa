package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const fileExt = ".session"

// FileDriver stores one signed file per session id under a root directory.
// A file older than the TTL reads as missing; it is left on disk for an
// external sweeper.
type FileDriver struct {
	root   string
	ttl    time.Duration
	signer Signer
}

// NewFileDriver creates root if needed and returns a driver writing into it.
func NewFileDriver(root string, ttl time.Duration, signer Signer) (*FileDriver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoFileLocation, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("session: create %s: %w", abs, err)
	}
	return &FileDriver{root: abs, ttl: ttl, signer: signer}, nil
}

func (d *FileDriver) Read(_ context.Context, id string) (string, bool, error) {
	path, err := d.path(id)
	if err != nil {
		return "", false, err
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if d.expired(info) {
		return "", false, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	data, err := d.signer.Unsign(string(raw), id)
	if err != nil {
		return "", false, nil
	}
	return data, true, nil
}

// Write replaces the record atomically through a temp file and rename.
func (d *FileDriver) Write(ctx context.Context, id, data string) error {
	if isEmptyPayload(data) {
		return d.Destroy(ctx, id)
	}

	path, err := d.path(id)
	if err != nil {
		return err
	}

	signed, err := d.signer.Sign(data, id)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.root, id+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.WriteString(signed); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (d *FileDriver) Destroy(_ context.Context, id string) error {
	path, err := d.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Touch bumps the file modification time. Expired files are left as they are,
// so a touch never extends a record past its TTL.
func (d *FileDriver) Touch(_ context.Context, id string) error {
	path, err := d.path(id)
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if d.expired(info) {
		return nil
	}

	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (d *FileDriver) expired(info fs.FileInfo) bool {
	return d.ttl > 0 && info.ModTime().Add(d.ttl).Before(time.Now())
}

// Root returns the absolute directory holding the session files.
func (d *FileDriver) Root() string {
	return d.root
}

// path maps id to a file directly inside root.
func (d *FileDriver) path(id string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`+"\x00") {
		return "", fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}

	path := filepath.Join(d.root, id+fileExt)
	if filepath.Dir(path) != d.root {
		return "", fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return path, nil
}
