package topocodec

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/topocodec/fieldstore"
)

// EncodeToStore encodes f and streams the archive into store under name.
// A failed encode aborts the upload, so no partial archive is published.
func (c *Codec) EncodeToStore(ctx context.Context, store fieldstore.Store, name string, f *Field) (int, error) {
	w, err := store.Create(ctx, name)
	if err != nil {
		return 0, err
	}
	n, err := c.EncodeField(w, f)
	if err != nil {
		_ = w.Abort()
		return n, err
	}
	return n, w.Close()
}

// DecodeFromStore opens the named archive in store and decodes it.
func (c *Codec) DecodeFromStore(ctx context.Context, store fieldstore.Store, name string) (*Field, int, error) {
	r, err := store.Open(ctx, name)
	if err != nil {
		return nil, 0, err
	}
	defer r.Close()
	return c.DecodeField(r)
}

// EncodeAll encodes independent fields concurrently into store.
// Each field gets its own stream and buffers; parallelism caps the number
// of in-flight encodes (0 means GOMAXPROCS). The first failure cancels the
// rest.
func (c *Codec) EncodeAll(ctx context.Context, store fieldstore.Store, fields map[string]*Field, parallelism int) error {
	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for name, f := range fields {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := c.EncodeToStore(ctx, store, name, f)
			return err
		})
	}
	return g.Wait()
}
