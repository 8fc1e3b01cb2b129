package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kbukum/ingestkit/errors"
	"github.com/kbukum/ingestkit/logger"
)

const storeName = "mongo"

// Collection is the subset of *mongo.Collection used here.
type Collection interface {
	UpdateOne(ctx context.Context, filter, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

var _ Collection = (*mongo.Collection)(nil)

// Client holds a MongoDB connection and its configured collections.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
	cfg    Config
	log    *logger.Logger
}

// Connect dials MongoDB, pings it and creates the document indexes.
func Connect(ctx context.Context, cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, errors.InvalidInput("mongo.enabled", "mongo is disabled")
	}
	if log == nil {
		log = logger.Get(storeName)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout))
	if err != nil {
		return nil, errors.StoreError(storeName, "connect", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.StoreError(storeName, "ping", err)
	}

	c := &Client{client: client, db: client.Database(cfg.Database), cfg: cfg, log: log}
	if err := c.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	log.Info("mongo connected", logger.Fields("database", cfg.Database, "collection", cfg.Collection))
	return c, nil
}

func (c *Client) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: KeyField, Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "last_seen", Value: 1}}},
	}
	if _, err := c.Documents().Indexes().CreateMany(ctx, indexes); err != nil {
		return errors.StoreError(storeName, "create indexes", err)
	}
	return nil
}

// Documents returns the collection articles are written to.
func (c *Client) Documents() *mongo.Collection { return c.db.Collection(c.cfg.Collection) }

// StateCollection returns the collection cursors are kept in.
func (c *Client) StateCollection() *mongo.Collection { return c.db.Collection(c.cfg.State) }

// Close disconnects from MongoDB.
func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.client.Disconnect(ctx); err != nil {
		return errors.StoreError(storeName, "disconnect", err)
	}
	return nil
}
