// Package memory stores accounting records in memory.
package memory

import (
	"context"

	"github.com/Solero93/OperatingSystems1/service/dao"
	"github.com/Solero93/OperatingSystems1/service/dao/accounting"
	"github.com/Solero93/OperatingSystems1/service/dao/store"
)

// Service is an in-memory, thread-safe accounting store.
type Service struct {
	records *store.MemoryStore[int, accounting.Record]
}

var _ dao.Service[int, accounting.Record] = (*Service)(nil)

func (s *Service) Save(ctx context.Context, r *accounting.Record) error {
	if r == nil {
		return dao.ErrNilEntity
	}
	if r.Seq <= 0 {
		return dao.ErrInvalidID
	}
	return s.records.Save(ctx, r)
}

func (s *Service) Load(ctx context.Context, seq int) (*accounting.Record, error) {
	if seq <= 0 {
		return nil, dao.ErrInvalidID
	}
	return s.records.Load(ctx, seq)
}

func (s *Service) Delete(ctx context.Context, seq int) error {
	if seq <= 0 {
		return dao.ErrInvalidID
	}
	return s.records.Delete(ctx, seq)
}

func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*accounting.Record, error) {
	return s.records.List(ctx, parameters...)
}

// Len returns the number of stored records.
func (s *Service) Len() int {
	return s.records.Len()
}

func New() *Service {
	return &Service{records: store.NewMemoryStore[int, accounting.Record](accounting.Key,
		store.WithMatcher[int, accounting.Record](accounting.Matches),
		store.WithOrder[int, accounting.Record](accounting.Less),
	)}
}
