package service

import (
	"context"

	"github.com/fulldump/kvlens/database"
	"github.com/fulldump/kvlens/driver"
	"github.com/fulldump/kvlens/mongostore"
)

const (
	BackendEmbedded = "embedded"
	BackendMongo    = "mongo"
)

// Backend hands out the collections stores are built on.
type Backend interface {
	Collection(ctx context.Context, name string) (driver.Collection, error)
	ListCollections(ctx context.Context) ([]string, error)
	GetStatus() string
}

type EmbeddedBackend struct {
	DB *database.Database
}

func NewEmbeddedBackend(db *database.Database) *EmbeddedBackend {
	return &EmbeddedBackend{DB: db}
}

func (b *EmbeddedBackend) Collection(ctx context.Context, name string) (driver.Collection, error) {
	return b.DB.Collection(name)
}

func (b *EmbeddedBackend) ListCollections(ctx context.Context) ([]string, error) {
	return b.DB.ListCollections(), nil
}

func (b *EmbeddedBackend) GetStatus() string {
	return b.DB.GetStatus()
}

type MongoBackend struct {
	Client   *mongostore.Client
	Database string
}

func NewMongoBackend(client *mongostore.Client, database string) *MongoBackend {
	return &MongoBackend{
		Client:   client,
		Database: database,
	}
}

func (b *MongoBackend) Collection(ctx context.Context, name string) (driver.Collection, error) {
	return b.Client.Collection(b.Database, name), nil
}

func (b *MongoBackend) ListCollections(ctx context.Context) ([]string, error) {
	return b.Client.ListCollections(ctx, b.Database)
}

// GetStatus is always operating: the connection is established before the
// backend exists.
func (b *MongoBackend) GetStatus() string {
	return database.StatusOperating
}
