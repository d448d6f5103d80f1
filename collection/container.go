package collection

import (
	"github.com/google/btree"
)

// RowContainer keeps rows in insertion order.
type RowContainer interface {
	ReplaceOrInsert(row *Row)
	Delete(row *Row)
	Get(row *Row) (*Row, bool)
	Has(row *Row) bool
	Len() int
	Traverse(iterator func(i *Row) bool)
}

type BTreeContainer struct {
	tree *btree.BTreeG[*Row]
}

func NewBTreeContainer() *BTreeContainer {
	return &BTreeContainer{
		tree: btree.NewG(32, func(a, b *Row) bool { return a.Less(b) }),
	}
}

func (b *BTreeContainer) ReplaceOrInsert(row *Row) {
	b.tree.ReplaceOrInsert(row)
}

func (b *BTreeContainer) Delete(row *Row) {
	b.tree.Delete(row)
}

func (b *BTreeContainer) Get(row *Row) (*Row, bool) {
	return b.tree.Get(row)
}

func (b *BTreeContainer) Has(row *Row) bool {
	return b.tree.Has(row)
}

func (b *BTreeContainer) Len() int {
	return b.tree.Len()
}

func (b *BTreeContainer) Traverse(iterator func(i *Row) bool) {
	b.tree.Ascend(iterator)
}
