package kv

import (
	"fmt"
	"sort"

	"github.com/fulldump/kvlens/driver"
)

// WriteResult is the outcome of any write, whatever the operation was.
type WriteResult struct {
	OK  bool     `json:"ok"`
	N   int64    `json:"n"`
	Ids []string `json:"ids,omitempty"`
}

// Normalize turns a collection acknowledgement into a WriteResult.
//
// For replacements N counts matched plus upserted documents, the way the
// database itself reports it, so rewriting a document with identical
// content is still ok.
func Normalize(ack driver.Ack) (*WriteResult, error) {
	result := &WriteResult{}

	switch a := ack.(type) {
	case *driver.InsertOneAck:
		if a == nil {
			break
		}
		result.N = 1
		result.addId(a.InsertedID)
		return result.done(), nil

	case *driver.InsertManyAck:
		if a == nil {
			break
		}
		result.N = int64(len(a.InsertedIDs))
		for _, id := range a.InsertedIDs {
			result.addId(id)
		}
		return result.done(), nil

	case *driver.DeleteAck:
		if a == nil {
			break
		}
		result.N = a.Deleted
		return result.done(), nil

	case *driver.UpdateAck:
		if a == nil {
			break
		}
		result.N = a.Matched + a.Upserted
		if a.Upserted > 0 {
			result.addId(a.UpsertedID)
		}
		return result.done(), nil

	case *driver.BulkAck:
		if a == nil {
			break
		}
		result.N = a.Inserted + a.Upserted + a.Modified + a.Deleted
		indexes := make([]int64, 0, len(a.UpsertedIDs))
		for i := range a.UpsertedIDs {
			indexes = append(indexes, i)
		}
		sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })
		for _, i := range indexes {
			result.addId(a.UpsertedIDs[i])
		}
		return result.done(), nil
	}

	return nil, &Error{Kind: ErrUnrecognizedResult, Reason: fmt.Sprintf("%T", ack)}
}

// addId records an assigned identity. Unknown identities are left out.
func (r *WriteResult) addId(id any) {
	if id == nil {
		return
	}
	r.Ids = append(r.Ids, renderId(id))
}

func (r *WriteResult) done() *WriteResult {
	r.OK = r.N > 0
	return r
}

// Add accumulates the outcome of a follow-up write.
func (r *WriteResult) Add(other *WriteResult) *WriteResult {
	result := &WriteResult{
		N:   r.N + other.N,
		Ids: append(append([]string{}, r.Ids...), other.Ids...),
	}
	if len(result.Ids) == 0 {
		result.Ids = nil
	}
	return result.done()
}

func renderId(id any) string {
	if s, ok := id.(string); ok {
		return s
	}
	if s, ok := id.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(id)
}
