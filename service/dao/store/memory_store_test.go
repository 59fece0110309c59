package store

import (
	"context"
	"strings"
	"testing"

	"github.com/Solero93/OperatingSystems1/service/dao"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   string
	Kind string
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	srv := NewMemoryStore[string, item](func(i *item) string { return i.ID },
		WithMatcher[string, item](func(i *item, parameters []*dao.Parameter) bool {
			for _, parameter := range parameters {
				if parameter.Name == "Kind" && parameter.Value != i.Kind {
					return false
				}
			}
			return true
		}),
		WithOrder[string, item](func(a, b *item) bool { return strings.Compare(a.ID, b.ID) < 0 }),
	)

	assert.ErrorIs(t, srv.Save(ctx, nil), dao.ErrNilEntity)
	for _, v := range []item{{"c", "x"}, {"a", "x"}, {"b", "y"}} {
		v := v
		require.NoError(t, srv.Save(ctx, &v))
	}
	assert.Equal(t, 3, srv.Len())

	loaded, err := srv.Load(ctx, "a")
	require.NoError(t, err)
	loaded.Kind = "changed"
	again, err := srv.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "x", again.Kind)

	xs, err := srv.List(ctx, dao.NewParameter("Kind", "x"))
	require.NoError(t, err)
	require.Len(t, xs, 2)
	assert.Equal(t, "a", xs[0].ID)
	assert.Equal(t, "c", xs[1].ID)

	require.NoError(t, srv.Delete(ctx, "a"))
	_, err = srv.Load(ctx, "a")
	assert.ErrorIs(t, err, dao.ErrNotFound)
	assert.ErrorIs(t, srv.Delete(ctx, "a"), dao.ErrNotFound)
}
