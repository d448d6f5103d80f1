package kv

import (
	"errors"
	"testing"

	. "github.com/fulldump/biff"

	"github.com/fulldump/kvlens/driver"
)

func TestNormalize(t *testing.T) {

	Alternative("Insert one", func(a *A) {
		r, err := Normalize(&driver.InsertOneAck{InsertedID: "abc"})
		AssertNil(err)
		AssertEqual(r, &WriteResult{OK: true, N: 1, Ids: []string{"abc"}})
	})

	Alternative("Insert one without identity", func(a *A) {
		r, err := Normalize(&driver.InsertOneAck{InsertedID: nil})
		AssertNil(err)
		AssertEqual(r, &WriteResult{OK: true, N: 1})
	})

	Alternative("Insert many", func(a *A) {
		r, err := Normalize(&driver.InsertManyAck{InsertedIDs: []any{1, "two"}})
		AssertNil(err)
		AssertEqual(r, &WriteResult{OK: true, N: 2, Ids: []string{"1", "two"}})
	})

	Alternative("Delete nothing", func(a *A) {
		r, err := Normalize(&driver.DeleteAck{Deleted: 0})
		AssertNil(err)
		AssertEqual(r, &WriteResult{OK: false, N: 0})
	})

	Alternative("Update", func(a *A) {

		a.Alternative("Matched with identical content", func(a *A) {
			r, err := Normalize(&driver.UpdateAck{Matched: 1, Modified: 0})
			AssertNil(err)
			AssertEqual(r, &WriteResult{OK: true, N: 1})
		})

		a.Alternative("Upserted", func(a *A) {
			r, err := Normalize(&driver.UpdateAck{Upserted: 1, UpsertedID: "new"})
			AssertNil(err)
			AssertEqual(r, &WriteResult{OK: true, N: 1, Ids: []string{"new"}})
		})
	})

	Alternative("Bulk", func(a *A) {
		r, err := Normalize(&driver.BulkAck{
			Inserted:    2,
			Modified:    1,
			Deleted:     1,
			Upserted:    2,
			UpsertedIDs: map[int64]any{7: "late", 3: "early"},
		})
		AssertNil(err)
		AssertEqual(r, &WriteResult{OK: true, N: 6, Ids: []string{"early", "late"}})
	})

	Alternative("Unrecognized", func(a *A) {

		a.Alternative("Nil ack", func(a *A) {
			_, err := Normalize(nil)
			AssertTrue(errors.Is(err, ErrUnrecognizedResult))
		})

		a.Alternative("Nil typed ack", func(a *A) {
			var ack *driver.DeleteAck
			_, err := Normalize(ack)
			AssertTrue(errors.Is(err, ErrUnrecognizedResult))
		})
	})
}

func TestWriteResult_Add(t *testing.T) {
	deleted := &WriteResult{OK: true, N: 2}
	inserted := &WriteResult{OK: true, N: 1, Ids: []string{"x"}}

	AssertEqual(deleted.Add(inserted), &WriteResult{OK: true, N: 3, Ids: []string{"x"}})
	AssertEqual((&WriteResult{}).Add(&WriteResult{}), &WriteResult{})
}
