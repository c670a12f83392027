package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/isalabel/pkg/errors"
	"github.com/matzehuels/isalabel/pkg/hierarchy"
	"github.com/matzehuels/isalabel/pkg/observability"
)

// File is a [Store] that keeps one JSON snapshot per hierarchy kind in a
// state directory. Counter locks are lock files created with O_EXCL, so
// several processes may share the directory.
type File struct {
	dir        string
	staleAfter time.Duration
}

// FileOption configures a [File] store.
type FileOption func(*File)

// WithStaleLockAfter breaks lock files older than d, left behind by an
// importer that died while holding a lease. Zero never breaks a lock.
func WithStaleLockAfter(d time.Duration) FileOption {
	return func(f *File) { f.staleAfter = d }
}

// NewFile creates a file-based store in the given directory.
// The directory will be created if it doesn't exist.
func NewFile(dir string, opts ...FileOption) (*File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create state dir %s", dir)
	}
	f := &File{dir: dir}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Dir returns the state directory.
func (f *File) Dir() string { return f.dir }

// Load reads the snapshot of kind. A missing file is an empty snapshot.
func (f *File) Load(ctx context.Context, kind hierarchy.Kind) (hierarchy.MapLabels, error) {
	start := time.Now()
	labels, err := f.read(kind)
	observability.Store().OnLoad(ctx, "file", kind.String(), len(labels), time.Since(start), err)
	return labels, err
}

func (f *File) read(kind hierarchy.Kind) (hierarchy.MapLabels, error) {
	data, err := os.ReadFile(f.path(kind, "labels.json"))
	if stderrors.Is(err, fs.ErrNotExist) {
		return hierarchy.MapLabels{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read %s labels", kind)
	}
	labels := hierarchy.MapLabels{}
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode %s labels", kind)
	}
	return labels, nil
}

// Save merges labels into the snapshot of kind and replaces the file
// atomically.
func (f *File) Save(ctx context.Context, kind hierarchy.Kind, labels hierarchy.MapLabels) error {
	start := time.Now()
	err := f.save(kind, labels)
	observability.Store().OnSave(ctx, "file", kind.String(), len(labels), time.Since(start), err)
	return err
}

func (f *File) save(kind hierarchy.Kind, labels hierarchy.MapLabels) error {
	cur, err := f.read(kind)
	if err != nil {
		return err
	}
	for uri, l := range labels {
		if l != nil {
			cur[uri] = l
		}
	}
	return f.write(kind, cur)
}

func (f *File) write(kind hierarchy.Kind, cur hierarchy.MapLabels) error {
	data, err := json.MarshalIndent(cur, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "encode %s labels", kind)
	}
	return f.writeAtomic(f.path(kind, "labels.json"), data)
}

// Delete drops uris from the snapshot of kind.
func (f *File) Delete(ctx context.Context, kind hierarchy.Kind, uris []string) error {
	if len(uris) == 0 {
		return nil
	}
	cur, err := f.read(kind)
	if err != nil {
		return err
	}
	for _, uri := range uris {
		delete(cur, uri)
	}
	return f.write(kind, cur)
}

// Acquire creates the lock file of kind, polling until it succeeds or ctx
// ends.
func (f *File) Acquire(ctx context.Context, kind hierarchy.Kind) (hierarchy.CounterLease, error) {
	start := time.Now()
	token := uuid.NewString()
	lockPath := f.path(kind, "lock")

	err := RetryWithBackoff(ctx, func() error {
		lf, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if stderrors.Is(err, fs.ErrExist) {
			f.breakStale(lockPath)
			return Retryable(ErrLocked)
		}
		if err != nil {
			return errors.Wrap(errors.ErrCodeStorage, err, "create %s lock", kind)
		}
		_, werr := lf.WriteString(token)
		if cerr := lf.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			_ = os.Remove(lockPath)
			return errors.Wrap(errors.ErrCodeStorage, werr, "write %s lock", kind)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	observability.Store().OnLockAcquired(ctx, "file", kind.String(), time.Since(start))
	return &fileLease{store: f, kind: kind, lockPath: lockPath, token: token}, nil
}

func (f *File) breakStale(lockPath string) {
	if f.staleAfter <= 0 {
		return
	}
	if info, err := os.Stat(lockPath); err == nil && time.Since(info.ModTime()) > f.staleAfter {
		_ = os.Remove(lockPath)
	}
}

// Close does nothing for the file store.
func (f *File) Close() error {
	return nil
}

func (f *File) path(kind hierarchy.Kind, ext string) string {
	return filepath.Join(f.dir, fmt.Sprintf("%s.%s", kind, ext))
}

func (f *File) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(f.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "write %s", path)
	}
	_, werr := tmp.Write(data)
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Rename(tmp.Name(), path)
	}
	if werr != nil {
		_ = os.Remove(tmp.Name())
		return errors.Wrap(errors.ErrCodeStorage, werr, "write %s", path)
	}
	return nil
}

type counterFile struct {
	Next int `json:"next"`
}

type fileLease struct {
	store    *File
	kind     hierarchy.Kind
	lockPath string
	token    string
	done     bool
}

func (l *fileLease) Load(context.Context) (int, error) {
	if l.done {
		return 0, errors.New(errors.ErrCodeInternal, "%s lease already released", l.kind)
	}
	data, err := os.ReadFile(l.store.path(l.kind, "counter.json"))
	if stderrors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStorage, err, "read %s counter", l.kind)
	}
	var c counterFile
	if err := json.Unmarshal(data, &c); err != nil {
		return 0, errors.Wrap(errors.ErrCodeStorage, err, "decode %s counter", l.kind)
	}
	return c.Next, nil
}

func (l *fileLease) Commit(_ context.Context, next int) error {
	if l.done {
		return errors.New(errors.ErrCodeInternal, "%s lease already released", l.kind)
	}
	data, err := json.Marshal(counterFile{Next: next})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "encode %s counter", l.kind)
	}
	if err := l.store.writeAtomic(l.store.path(l.kind, "counter.json"), data); err != nil {
		_ = l.release()
		return err
	}
	return l.release()
}

func (l *fileLease) Rollback(context.Context) error {
	if l.done {
		return nil
	}
	return l.release()
}

// release removes the lock file unless another importer broke and retook it.
func (l *fileLease) release() error {
	l.done = true
	data, err := os.ReadFile(l.lockPath)
	if err != nil || string(data) != l.token {
		return nil
	}
	if err := os.Remove(l.lockPath); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(errors.ErrCodeStorage, err, "release %s lock", l.kind)
	}
	return nil
}

// Ensure File implements Store.
var _ Store = (*File)(nil)
