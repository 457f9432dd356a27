package mapping

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Sources names the tables to load. Empty names are skipped.
type Sources struct {
	Reference string
	Alignment string
}

// Context bundles the mapping stores used by a run. Both stores are always
// non-nil; a table that was not supplied is loaded as an empty store.
type Context struct {
	Reference *Reference
	Alignment *Alignment
}

// NewContext wraps already-built stores. Nil stores are replaced with empty
// ones.
func NewContext(ref *Reference, aln *Alignment) *Context {
	if ref == nil {
		ref = newReference()
	}
	if aln == nil {
		aln = &Alignment{records: make(map[uint64]AlignmentRecord)}
	}
	return &Context{Reference: ref, Alignment: aln}
}

// Load reads both tables concurrently.
func Load(ctx context.Context, src Sources) (*Context, error) {
	var (
		ref *Reference
		aln *Alignment
	)

	g, ctx := errgroup.WithContext(ctx)
	if src.Reference != "" {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var err error
			ref, err = LoadReference(src.Reference)
			return err
		})
	}
	if src.Alignment != "" {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var err error
			aln, err = LoadAlignment(src.Alignment)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewContext(ref, aln), nil
}
