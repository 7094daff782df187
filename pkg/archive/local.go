package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrymomot/dispatchkit/pkg/dispatch"
)

// LocalArchive is a dispatch.Sink writing one JSON file per terminal outcome
// under a base directory. All paths are confined to that directory.
type LocalArchive struct {
	baseDir string
	prefix  string
}

// NewLocalArchive resolves dir to an absolute path and creates it.
func NewLocalArchive(cfg LocalConfig) (*LocalArchive, error) {
	if cfg.Dir == "" {
		return nil, ErrInvalidConfig
	}

	absDir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return nil, errors.Join(ErrWriteFailed, err)
	}

	return &LocalArchive{baseDir: absDir, prefix: cfg.Prefix}, nil
}

// Record is a no-op; only terminal outcomes are archived.
func (a *LocalArchive) Record(context.Context, dispatch.Attempt) error {
	return nil
}

// Finalize writes the outcome under Key.
func (a *LocalArchive) Finalize(ctx context.Context, o dispatch.Outcome) error {
	_, err := a.Put(ctx, o)
	return err
}

// Put writes the outcome and returns its key. The file is written to a
// temporary name first and renamed, so readers never see partial JSON.
func (a *LocalArchive) Put(ctx context.Context, o dispatch.Outcome) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	body, err := encode(o)
	if err != nil {
		return "", err
	}

	key := Key(a.prefix, o)
	absPath, err := a.resolvePath(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", errors.Join(ErrWriteFailed, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(absPath), ".outcome-*")
	if err != nil {
		return "", errors.Join(ErrWriteFailed, err)
	}
	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", errors.Join(ErrWriteFailed, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", errors.Join(ErrWriteFailed, err)
	}
	if err := os.Rename(tmp.Name(), absPath); err != nil {
		_ = os.Remove(tmp.Name())
		return "", errors.Join(ErrWriteFailed, err)
	}

	return key, nil
}

// Get reads and decodes an archived outcome.
func (a *LocalArchive) Get(ctx context.Context, key string) (dispatch.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return dispatch.Outcome{}, err
	}

	key, err := validateKey(key)
	if err != nil {
		return dispatch.Outcome{}, err
	}
	absPath, err := a.resolvePath(key)
	if err != nil {
		return dispatch.Outcome{}, err
	}

	b, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return dispatch.Outcome{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return dispatch.Outcome{}, errors.Join(ErrReadFailed, err)
	}
	return decode(b)
}

// Exists reports whether a file exists under key.
func (a *LocalArchive) Exists(_ context.Context, key string) bool {
	key, err := validateKey(key)
	if err != nil {
		return false
	}
	absPath, err := a.resolvePath(key)
	if err != nil {
		return false
	}
	info, err := os.Stat(absPath)
	return err == nil && !info.IsDir()
}

// resolvePath joins key onto baseDir and rejects anything that escapes it.
func (a *LocalArchive) resolvePath(key string) (string, error) {
	absPath, err := filepath.Abs(filepath.Join(a.baseDir, filepath.FromSlash(filepath.Clean("/"+key))))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if !strings.HasPrefix(absPath, a.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidKey, key)
	}
	return absPath, nil
}

var _ dispatch.Sink = (*LocalArchive)(nil)
