// Package fs stores accounting records as JSON files on any afs backed storage.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Solero93/OperatingSystems1/service/dao"
	"github.com/Solero93/OperatingSystems1/service/dao/accounting"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
)

const recordExt = ".json"

// Service implements a file based accounting store, one file per record
// under a directory per boot. A store scoped with WithBootID loads, deletes
// and lists only the records of that boot.
type Service struct {
	basePath string
	bootID   string
	fs       afs.Service
	logger   *slog.Logger
	mu       sync.RWMutex
}

var _ dao.Service[int, accounting.Record] = (*Service)(nil)

// Save persists a record.
func (s *Service) Save(ctx context.Context, r *accounting.Record) error {
	if r == nil {
		return dao.ErrNilEntity
	}
	if r.Seq <= 0 {
		return dao.ErrInvalidID
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal record %d: %w", r.Seq, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	filePath := s.recordPath(r.BootID, r.Seq)
	if err = s.fs.Upload(ctx, filePath, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save record to file %s: %w", filePath, err)
	}
	return nil
}

// Load retrieves a record by sequence number.
func (s *Service) Load(ctx context.Context, seq int) (*accounting.Record, error) {
	if seq <= 0 {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	filePath := s.recordPath(s.bootID, seq)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to check if record exists: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("record %d: %w", seq, dao.ErrNotFound)
	}
	data, err := s.fs.DownloadWithURL(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read record file: %w", err)
	}
	var r accounting.Record
	if err = json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %d: %w", seq, err)
	}
	return &r, nil
}

// Delete removes a record.
func (s *Service) Delete(ctx context.Context, seq int) error {
	if seq <= 0 {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	filePath := s.recordPath(s.bootID, seq)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return fmt.Errorf("failed to check if record exists: %w", err)
	}
	if !exists {
		return fmt.Errorf("record %d: %w", seq, dao.ErrNotFound)
	}
	if err = s.fs.Delete(ctx, filePath); err != nil {
		return fmt.Errorf("failed to delete record file: %w", err)
	}
	return nil
}

// List returns the matching records ordered by Seq. Unreadable files are
// logged and skipped.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*accounting.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	location := s.basePath
	if s.bootID != "" {
		location = url.Join(s.basePath, s.bootID)
		if exists, _ := s.fs.Exists(ctx, location); !exists {
			return nil, nil
		}
		parameters = append(parameters, dao.NewParameter("BootID", s.bootID))
	}
	objects, err := s.fs.List(ctx, location, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list record files: %w", err)
	}
	var records []*accounting.Record
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), recordExt) {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			s.logger.Warn("failed to read record file", "url", object.URL(), "error", err)
			continue
		}
		var r accounting.Record
		if err = json.Unmarshal(data, &r); err != nil {
			s.logger.Warn("failed to unmarshal record", "url", object.URL(), "error", err)
			continue
		}
		if !accounting.Matches(&r, parameters) {
			continue
		}
		records = append(records, &r)
	}
	accounting.Sort(records)
	return records, nil
}

func (s *Service) recordPath(bootID string, seq int) string {
	name := fmt.Sprintf("%06d%s", seq, recordExt)
	if bootID == "" {
		return url.Join(s.basePath, name)
	}
	return url.Join(s.basePath, bootID, name)
}

// Option configures a Service.
type Option func(s *Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithBootID scopes Load, Delete and List to the records of one boot.
func WithBootID(bootID string) Option {
	return func(s *Service) {
		s.bootID = bootID
	}
}

// New creates a store rooted at basePath, creating the location when missing.
func New(ctx context.Context, fs afs.Service, basePath string, options ...Option) (*Service, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	basePath = url.Normalize(basePath, file.Scheme)
	exists, _ := fs.Exists(ctx, basePath)
	if !exists {
		if err := fs.Create(ctx, basePath, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base directory %s: %w", basePath, err)
		}
	}
	ret := &Service{basePath: basePath, fs: fs, logger: slog.Default()}
	for _, opt := range options {
		opt(ret)
	}
	return ret, nil
}
