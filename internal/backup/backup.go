package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"stockroom/internal/apperr"
	"stockroom/internal/validation"
)

const (
	filePrefix = "backup_"
	fileExt    = ".db"
	// TimestampLayout formats the timestamp embedded in backup file names.
	TimestampLayout = "20060102_150405"
)

// sqliteMagic starts every SQLite 3 database file.
var sqliteMagic = []byte("SQLite format 3\x00")

// ErrInvalidBackup is returned by Restore for a source that is not a usable database file.
var ErrInvalidBackup = errors.New("not a valid database backup")

// Guard grants exclusive access to the live database file. No connection is
// open while fn runs.
type Guard interface {
	Exclusive(ctx context.Context, fn func(path string) error) error
}

// Info describes one backup file.
type Info struct {
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Service copies the database file to and from backup files.
type Service struct {
	guard Guard
	log   *zap.Logger

	// Now supplies the backup timestamp.
	Now func() time.Time
}

func NewService(guard Guard, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{guard: guard, log: log, Now: time.Now}
}

// FileName returns the backup file name for t.
func FileName(t time.Time) string {
	return filePrefix + t.Format(TimestampLayout) + fileExt
}

// Backup copies the live database to destDir/backup_<YYYYMMDD_HHMMSS>.db and
// returns the path written. destDir is created when absent. A missing live
// file yields apperr.ErrNotFound.
func (s *Service) Backup(ctx context.Context, destDir string) (string, error) {
	var dest string
	err := s.guard.Exclusive(ctx, func(src string) error {
		if _, err := os.Stat(src); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("database file %s: %w", src, apperr.ErrNotFound)
			}
			return apperr.Storage("stat database", err)
		}
		if err := os.MkdirAll(destDir, 0755); err != nil {
			return apperr.Storage("create backup dir", err)
		}
		dest = filepath.Join(destDir, FileName(s.Now()))
		return copyFile(src, dest)
	})
	if err != nil {
		return "", err
	}
	s.log.Info("database backed up", zap.String("path", dest))
	return dest, nil
}

// Restore overwrites the live database with the file at src. src must be a
// readable, non-empty SQLite file. No backup of the current state is taken.
func (s *Service) Restore(ctx context.Context, src string) error {
	if err := checkBackupFile(src); err != nil {
		return err
	}
	err := s.guard.Exclusive(ctx, func(dst string) error {
		for _, suffix := range []string{"-wal", "-shm"} {
			if err := os.Remove(dst + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
				return apperr.Storage("remove "+suffix, err)
			}
		}
		return copyFile(src, dst)
	})
	if err != nil {
		return err
	}
	s.log.Info("database restored", zap.String("from", src))
	return nil
}

// ResolveName returns the path of backup file name inside dir, rejecting
// names that would escape it.
func ResolveName(dir, name string) (string, error) {
	ve := &validation.ValidationErrors{}
	validation.ValidateFilename(ve, name)
	if err := ve.Err(); err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// List returns the backups in dir, newest first. A missing dir yields an empty list.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Info{}, nil
		}
		return nil, apperr.Storage("list backups", err)
	}

	out := []Info{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		created, err := time.ParseInLocation(TimestampLayout,
			strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileExt), time.Local)
		if err != nil {
			created = info.ModTime()
		}
		out = append(out, Info{
			Filename:  name,
			Path:      filepath.Join(dir, name),
			Size:      info.Size(),
			CreatedAt: created,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func checkBackupFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("backup %s: %w", path, apperr.ErrNotFound)
		}
		return apperr.Storage("stat backup", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file: %w", path, ErrInvalidBackup)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s is empty: %w", path, ErrInvalidBackup)
	}

	f, err := os.Open(path)
	if err != nil {
		return apperr.Storage("open backup", err)
	}
	defer f.Close()

	header := make([]byte, len(sqliteMagic))
	if _, err := io.ReadFull(f, header); err != nil || !bytes.Equal(header, sqliteMagic) {
		return fmt.Errorf("%s has no SQLite header: %w", path, ErrInvalidBackup)
	}
	return nil
}

// copyFile writes src to a temp file beside dst and renames it into place.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return apperr.Storage("open source", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".tmp-*")
	if err != nil {
		return apperr.Storage("create temp file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return apperr.Storage("copy", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apperr.Storage("sync", err)
	}
	if err := tmp.Close(); err != nil {
		return apperr.Storage("close temp file", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return apperr.Storage("rename", err)
	}
	return nil
}
