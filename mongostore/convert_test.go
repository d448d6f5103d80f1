package mongostore

import (
	"testing"
	"time"

	. "github.com/fulldump/biff"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fulldump/kvlens/driver"
	"github.com/fulldump/kvlens/projection"
)

func TestFindProjection(t *testing.T) {

	Alternative("Empty projection asks for the identity", func(a *A) {
		AssertEqual(findProjection(projection.Projection{}), bson.M{"_id": 1})
	})

	Alternative("Inclusion keeps the identity exclusion only", func(a *A) {
		p := projection.Projection{"doc": true, "doc.secret": false, "_id": false}
		AssertEqual(findProjection(p), bson.M{"doc": 1, "_id": 0})
	})

	Alternative("Exclusion", func(a *A) {
		p := projection.Projection{"number": false, "_id": false}
		AssertEqual(findProjection(p), bson.M{"number": 0, "_id": 0})
	})
}

func TestSortDocument(t *testing.T) {
	AssertEqual(sortDocument([]driver.SortField{
		{Field: "b"},
		{Field: "a", Descending: true},
	}), bson.D{{Key: "b", Value: 1}, {Key: "a", Value: -1}})
}

func TestFromBson(t *testing.T) {

	when := time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)

	raw := bson.M{
		"name": "x",
		"tags": bson.A{"a", bson.M{"deep": bson.D{{Key: "k", Value: int32(1)}}}},
		"when": primitive.NewDateTimeFromTime(when),
	}

	doc := fromBson(raw).(driver.Document)
	AssertTrue(doc["when"].(time.Time).Equal(when))

	delete(doc, "when")
	AssertEqual(doc, driver.Document{
		"name": "x",
		"tags": []any{"a", driver.Document{"deep": driver.Document{"k": int32(1)}}},
	})
}

func TestAcks(t *testing.T) {

	oid := primitive.NewObjectID()

	Alternative("Insert renders object ids", func(a *A) {
		ack := insertOneAck(&mongo.InsertOneResult{InsertedID: oid})
		AssertEqual(ack.InsertedID, oid.Hex())

		many := insertManyAck(&mongo.InsertManyResult{InsertedIDs: []any{oid, "custom"}})
		AssertEqual(many.InsertedIDs, []any{oid.Hex(), "custom"})
	})

	Alternative("Update", func(a *A) {
		ack := updateAck(&mongo.UpdateResult{UpsertedCount: 1, UpsertedID: oid})
		AssertEqual(ack, &driver.UpdateAck{Upserted: 1, UpsertedID: oid.Hex()})

		ack = updateAck(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1})
		AssertEqual(ack, &driver.UpdateAck{Matched: 1, Modified: 1})
	})

	Alternative("Bulk", func(a *A) {
		ack := bulkAck(&mongo.BulkWriteResult{
			InsertedCount: 2,
			DeletedCount:  1,
			UpsertedCount: 1,
			UpsertedIDs:   map[int64]any{3: oid},
		})
		AssertEqual(ack, &driver.BulkAck{
			Inserted:    2,
			Deleted:     1,
			Upserted:    1,
			UpsertedIDs: map[int64]any{3: oid.Hex()},
		})
	})

	Alternative("Delete", func(a *A) {
		AssertEqual(deleteAck(&mongo.DeleteResult{DeletedCount: 4}), &driver.DeleteAck{Deleted: 4})
	})
}

func TestWriteModels(t *testing.T) {

	models, err := writeModels([]driver.WriteModel{
		&driver.InsertOneModel{Document: driver.Document{"a": 1}},
		&driver.DeleteOneModel{},
		&driver.DeleteManyModel{Filter: driver.Document{"a": 1}},
		&driver.ReplaceOneModel{Filter: driver.Document{"a": 1}, Replacement: driver.Document{"a": 2}, Upsert: true},
	})
	AssertNil(err)
	AssertEqual(len(models), 4)

	replace := models[3].(*mongo.ReplaceOneModel)
	AssertTrue(*replace.Upsert)

	deleteOne := models[1].(*mongo.DeleteOneModel)
	AssertEqual(deleteOne.Filter, bson.D{})
}
