package dataset

import (
	"time"

	"github.com/framecheck-labs/framecheck/pkg/contract"
)

// Select returns a row-subset view over ds without copying column data.
// Indices are taken as-is; callers who need a stable row order (the sampler
// does) sort them first.
func Select(ds Dataset, indices []int) Dataset {
	return &view{base: ds, indices: indices}
}

type view struct {
	base    Dataset
	indices []int
}

func (v *view) ColumnNames() []string { return v.base.ColumnNames() }
func (v *view) RowCount() int         { return len(v.indices) }

func (v *view) Column(name string) (Column, bool) {
	c, ok := v.base.Column(name)
	if !ok {
		return nil, false
	}
	return &viewColumn{base: c, indices: v.indices}, true
}

type viewColumn struct {
	base    Column
	indices []int
}

func (c *viewColumn) Name() string                 { return c.base.Name() }
func (c *viewColumn) DType() contract.DType        { return c.base.DType() }
func (c *viewColumn) Len() int                     { return len(c.indices) }
func (c *viewColumn) IsNull(i int) bool            { return c.base.IsNull(c.indices[i]) }
func (c *viewColumn) Value(i int) (any, bool)      { return c.base.Value(c.indices[i]) }
func (c *viewColumn) Float(i int) (float64, bool)  { return c.base.Float(c.indices[i]) }
func (c *viewColumn) String(i int) (string, bool)  { return c.base.String(c.indices[i]) }
func (c *viewColumn) Time(i int) (time.Time, bool) { return c.base.Time(c.indices[i]) }
