package mongostore

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fulldump/kvlens/driver"
	"github.com/fulldump/kvlens/projection"
)

// findProjection renders a projection the server accepts. Inclusion
// projections cannot exclude anything but the identity, so those
// exclusions are left to projection.Apply on the client. An empty
// projection asks for the identity only.
func findProjection(p projection.Projection) bson.M {
	if p.IsEmpty() {
		return bson.M{projection.IdField: 1}
	}

	result := bson.M{}
	inclusive := p.Inclusive()
	for path, include := range p {
		if inclusive && !include && path != projection.IdField {
			continue
		}
		if include {
			result[path] = 1
		} else {
			result[path] = 0
		}
	}
	return result
}

func sortDocument(fields []driver.SortField) bson.D {
	result := make(bson.D, 0, len(fields))
	for _, field := range fields {
		direction := 1
		if field.Descending {
			direction = -1
		}
		result = append(result, bson.E{Key: field.Field, Value: direction})
	}
	return result
}

// fromBson turns decoded BSON values into the plain value model used by the
// rest of the module.
func fromBson(v any) any {
	switch value := v.(type) {
	case bson.M:
		return fromMap(value)
	case map[string]any:
		return fromMap(value)
	case bson.D:
		doc := make(driver.Document, len(value))
		for _, e := range value {
			doc[e.Key] = fromBson(e.Value)
		}
		return doc
	case bson.A:
		return fromSlice(value)
	case []any:
		return fromSlice(value)
	case primitive.DateTime:
		return value.Time().UTC()
	default:
		return value
	}
}

func fromMap(m map[string]any) driver.Document {
	doc := make(driver.Document, len(m))
	for k, v := range m {
		doc[k] = fromBson(v)
	}
	return doc
}

func fromSlice(s []any) []any {
	result := make([]any, len(s))
	for i, v := range s {
		result[i] = fromBson(v)
	}
	return result
}

// renderId keeps identities readable outside the database.
func renderId(id any) any {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return id
}

func insertOneAck(r *mongo.InsertOneResult) *driver.InsertOneAck {
	return &driver.InsertOneAck{InsertedID: renderId(r.InsertedID)}
}

func insertManyAck(r *mongo.InsertManyResult) *driver.InsertManyAck {
	ids := make([]any, len(r.InsertedIDs))
	for i, id := range r.InsertedIDs {
		ids[i] = renderId(id)
	}
	return &driver.InsertManyAck{InsertedIDs: ids}
}

func deleteAck(r *mongo.DeleteResult) *driver.DeleteAck {
	return &driver.DeleteAck{Deleted: r.DeletedCount}
}

func updateAck(r *mongo.UpdateResult) *driver.UpdateAck {
	return &driver.UpdateAck{
		Matched:    r.MatchedCount,
		Modified:   r.ModifiedCount,
		Upserted:   r.UpsertedCount,
		UpsertedID: renderId(r.UpsertedID),
	}
}

func bulkAck(r *mongo.BulkWriteResult) *driver.BulkAck {
	ack := &driver.BulkAck{
		Inserted:    r.InsertedCount,
		Matched:     r.MatchedCount,
		Modified:    r.ModifiedCount,
		Deleted:     r.DeletedCount,
		Upserted:    r.UpsertedCount,
		UpsertedIDs: make(map[int64]any, len(r.UpsertedIDs)),
	}
	for i, id := range r.UpsertedIDs {
		ack.UpsertedIDs[i] = renderId(id)
	}
	return ack
}

func writeModels(models []driver.WriteModel) ([]mongo.WriteModel, error) {
	result := make([]mongo.WriteModel, 0, len(models))
	for i, model := range models {
		switch m := model.(type) {
		case *driver.InsertOneModel:
			result = append(result, mongo.NewInsertOneModel().SetDocument(m.Document))
		case *driver.DeleteOneModel:
			result = append(result, mongo.NewDeleteOneModel().SetFilter(nonNil(m.Filter)))
		case *driver.DeleteManyModel:
			result = append(result, mongo.NewDeleteManyModel().SetFilter(nonNil(m.Filter)))
		case *driver.ReplaceOneModel:
			result = append(result, mongo.NewReplaceOneModel().
				SetFilter(nonNil(m.Filter)).
				SetReplacement(m.Replacement).
				SetUpsert(m.Upsert))
		default:
			return nil, fmt.Errorf("write model %d: unsupported %T", i, model)
		}
	}
	return result, nil
}
