package collection

import (
	"github.com/fulldump/kvlens/driver"
)

type Row struct {
	I        int64 // insertion sequence, stable across reloads
	Document driver.Document
}

// Less orders rows by insertion sequence.
func (r *Row) Less(than *Row) bool {
	return r.I < than.I
}
