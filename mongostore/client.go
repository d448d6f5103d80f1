// Package mongostore serves driver.Collection from a MongoDB deployment.
package mongostore

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Client struct {
	client *mongo.Client
}

func Connect(ctx context.Context, uri string) (*Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	err = client.Ping(ctx, readpref.Primary())
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	log.Println("connected to mongo")
	return &Client{client: client}, nil
}

func (c *Client) Collection(database, name string) *Collection {
	return &Collection{
		collection: c.client.Database(database).Collection(name),
	}
}

func (c *Client) ListDatabases(ctx context.Context) ([]string, error) {
	return c.client.ListDatabaseNames(ctx, bson.D{})
}

func (c *Client) ListCollections(ctx context.Context, database string) ([]string, error) {
	return c.client.Database(database).ListCollectionNames(ctx, bson.D{})
}

// DropCollection removes the collection and every document in it.
func (c *Client) DropCollection(ctx context.Context, database, name string) error {
	return c.client.Database(database).Collection(name).Drop(ctx)
}

func (c *Client) Disconnect(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
