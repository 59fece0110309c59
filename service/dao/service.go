// Package dao defines the storage contract for records kept across a run.
package dao

import (
	"context"
)

// Service stores values of T under keys of K.
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
