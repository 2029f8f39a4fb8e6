// Package blocklist implements the append only flat file of blocked networks.
package blocklist

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

var (
	ErrStorage    = errors.New("failed to access blocklist storage")
	ErrLockFailed = errors.New("could not acquire blocklist lock")
)

type AddResult int

const (
	Added AddResult = iota
	AlreadyPresent
)

func (r AddResult) String() string {
	if r == Added {
		return "added"
	}

	return "already present"
}

// Store persists one CIDR per line. Entries are only ever appended.
//
// Every read-decide-append sequence runs while holding both an in process mutex and an
// exclusive advisory lock on a sibling lock file so that concurrent writers can never
// append the same entry twice.
type Store struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

func (s *Store) Path() string {
	return s.path
}

// Contains reports whether a line exactly matching subnet exists. A missing file contains nothing.
func (s *Store) Contains(ctx context.Context, subnet string) (bool, error) {
	unlock, errLock := s.acquire(ctx)
	if errLock != nil {
		return false, errLock
	}
	defer unlock()

	existing, _, errRead := s.read()
	if errRead != nil {
		return false, errRead
	}

	_, found := existing[subnet]

	return found, nil
}

// Add appends subnet unless an identical line already exists.
func (s *Store) Add(ctx context.Context, subnet string) (AddResult, error) {
	added, errAdd := s.AddAll(ctx, []string{subnet})
	if errAdd != nil {
		return Added, errAdd
	}

	if len(added) == 0 {
		return AlreadyPresent, nil
	}

	return Added, nil
}

// AddAll appends every subnet not already present, reading the existing contents once. Returns the
// subnets which were written, in order.
func (s *Store) AddAll(ctx context.Context, subnets []string) ([]string, error) {
	unlock, errLock := s.acquire(ctx)
	if errLock != nil {
		return nil, errLock
	}
	defer unlock()

	existing, raw, errRead := s.read()
	if errRead != nil {
		return nil, errRead
	}

	var (
		added []string
		buf   bytes.Buffer
	)

	if len(raw) > 0 && raw[len(raw)-1] != '\n' {
		buf.WriteByte('\n')
	}

	for _, subnet := range subnets {
		if _, found := existing[subnet]; found {
			continue
		}

		existing[subnet] = struct{}{}
		added = append(added, subnet)

		buf.WriteString(subnet)
		buf.WriteByte('\n')
	}

	if len(added) == 0 {
		return nil, nil
	}

	if errWrite := s.appendBytes(buf.Bytes()); errWrite != nil {
		return nil, errWrite
	}

	slog.Info("Updated blocklist", slog.Int("added", len(added)), slog.String("path", s.path))

	return added, nil
}

// ReadAll returns the file verbatim. A missing file is returned as an empty string.
func (s *Store) ReadAll(_ context.Context) (string, error) {
	body, errRead := os.ReadFile(s.path)
	if errRead != nil {
		if errors.Is(errRead, fs.ErrNotExist) {
			return "", nil
		}

		return "", errors.Join(errRead, ErrStorage)
	}

	return string(body), nil
}

// Entries returns the non-empty, trimmed lines in file order.
func (s *Store) Entries(ctx context.Context) ([]string, error) {
	body, errRead := s.ReadAll(ctx)
	if errRead != nil {
		return nil, errRead
	}

	var entries []string

	for line := range strings.SplitSeq(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		entries = append(entries, line)
	}

	return entries, nil
}

// Size returns the file size in bytes, 0 when it does not exist yet.
func (s *Store) Size() (int64, error) {
	info, errStat := os.Stat(s.path)
	if errStat != nil {
		if errors.Is(errStat, fs.ErrNotExist) {
			return 0, nil
		}

		return 0, errors.Join(errStat, ErrStorage)
	}

	return info.Size(), nil
}

func (s *Store) acquire(ctx context.Context) (func(), error) {
	s.mu.Lock()

	if errDir := os.MkdirAll(filepath.Dir(s.path), 0o755); errDir != nil {
		s.mu.Unlock()

		return nil, errors.Join(errDir, ErrStorage)
	}

	locked, errLock := s.lock.TryLockContext(ctx, 25*time.Millisecond)
	if errLock != nil || !locked {
		s.mu.Unlock()

		return nil, errors.Join(errLock, ErrLockFailed, ErrStorage)
	}

	return func() {
		if errUnlock := s.lock.Unlock(); errUnlock != nil {
			slog.Error("Failed to release blocklist lock", slog.String("path", s.lock.Path()))
		}

		s.mu.Unlock()
	}, nil
}

func (s *Store) read() (map[string]struct{}, []byte, error) {
	existing := map[string]struct{}{}

	raw, errRead := os.ReadFile(s.path)
	if errRead != nil {
		if errors.Is(errRead, fs.ErrNotExist) {
			return existing, nil, nil
		}

		return nil, nil, errors.Join(errRead, ErrStorage)
	}

	for line := range strings.SplitSeq(string(raw), "\n") {
		existing[strings.TrimSpace(line)] = struct{}{}
	}

	return existing, raw, nil
}

func (s *Store) appendBytes(body []byte) error {
	file, errOpen := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if errOpen != nil {
		return errors.Join(errOpen, ErrStorage)
	}

	if _, errWrite := file.Write(body); errWrite != nil {
		_ = file.Close()

		return errors.Join(errWrite, ErrStorage)
	}

	if errClose := file.Close(); errClose != nil {
		return errors.Join(errClose, ErrStorage)
	}

	return nil
}
