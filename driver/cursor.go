package driver

import "context"

// SliceCursor serves documents already in memory.
type SliceCursor struct {
	docs    []Document
	pos     int
	current Document
	closed  bool
	err     error
}

func NewSliceCursor(docs []Document) *SliceCursor {
	return &SliceCursor{docs: docs}
}

func (c *SliceCursor) Next(ctx context.Context) bool {
	if c.closed || c.pos >= len(c.docs) {
		c.current = nil
		return false
	}
	if err := ctx.Err(); err != nil {
		c.current = nil
		c.err = err
		return false
	}
	c.current = c.docs[c.pos]
	c.pos++
	return true
}

func (c *SliceCursor) Current() Document {
	return c.current
}

func (c *SliceCursor) Err() error {
	return c.err
}

func (c *SliceCursor) Close(ctx context.Context) error {
	c.closed = true
	c.docs = nil
	return nil
}
