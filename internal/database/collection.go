package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned by FindOne when no document matches.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateKey is returned when an insert violates a unique index.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrNotConnected is returned when the store has no live driver connection.
	ErrNotConnected = errors.New("database not connected")
)

// FindOptions controls ordering and size of a Find.
type FindOptions struct {
	SortField string
	SortDesc  bool
	Limit     int64
}

// Newest sorts by createdAt, newest first.
func Newest(limit int64) FindOptions {
	return FindOptions{SortField: "createdAt", SortDesc: true, Limit: limit}
}

// Collection is a typed view over one collection. Filters support equality,
// $in, $nin, $ne, $exists and $gt/$gte/$lt/$lte on top-level keys. Updates
// are $set of exactly the given keys; Push appends to an array atomically.
// Callers assign _id before Insert.
type Collection[T any] interface {
	Name() string
	Insert(ctx context.Context, doc *T) error
	FindOne(ctx context.Context, filter bson.M) (*T, error)
	Find(ctx context.Context, filter bson.M, opts ...FindOptions) ([]T, error)
	Count(ctx context.Context, filter bson.M) (int64, error)
	UpdateOne(ctx context.Context, filter bson.M, set bson.M) (int64, error)
	UpdateMany(ctx context.Context, filter bson.M, set bson.M) (int64, error)
	// Push appends value to the array at key of the first match and applies set in the same write.
	Push(ctx context.Context, filter bson.M, key string, value interface{}, set bson.M) (int64, error)
	DeleteMany(ctx context.Context, filter bson.M) (int64, error)
}

type mongoCollection[T any] struct {
	coll *mongo.Collection
}

func newMongoCollection[T any](db *mongo.Database, name string) *mongoCollection[T] {
	return &mongoCollection[T]{coll: db.Collection(name)}
}

func (c *mongoCollection[T]) Name() string { return c.coll.Name() }

func (c *mongoCollection[T]) Insert(ctx context.Context, doc *T) error {
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", c.coll.Name(), ErrDuplicateKey)
		}
		return fmt.Errorf("insert into %s: %w", c.coll.Name(), err)
	}
	return nil
}

func (c *mongoCollection[T]) FindOne(ctx context.Context, filter bson.M) (*T, error) {
	var out T
	if err := c.coll.FindOne(ctx, orEmpty(filter)).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find one in %s: %w", c.coll.Name(), err)
	}
	return &out, nil
}

func (c *mongoCollection[T]) Find(ctx context.Context, filter bson.M, opts ...FindOptions) ([]T, error) {
	findOpts := options.Find()
	for _, o := range opts {
		if o.SortField != "" {
			dir := 1
			if o.SortDesc {
				dir = -1
			}
			findOpts.SetSort(bson.D{{Key: o.SortField, Value: dir}})
		}
		if o.Limit > 0 {
			findOpts.SetLimit(o.Limit)
		}
	}

	cursor, err := c.coll.Find(ctx, orEmpty(filter), findOpts)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var out []T
	if err = cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.coll.Name(), err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func (c *mongoCollection[T]) Count(ctx context.Context, filter bson.M) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, orEmpty(filter))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c.coll.Name(), err)
	}
	return n, nil
}

func (c *mongoCollection[T]) UpdateOne(ctx context.Context, filter bson.M, set bson.M) (int64, error) {
	res, err := c.coll.UpdateOne(ctx, orEmpty(filter), bson.M{"$set": set})
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", c.coll.Name(), err)
	}
	return res.MatchedCount, nil
}

func (c *mongoCollection[T]) UpdateMany(ctx context.Context, filter bson.M, set bson.M) (int64, error) {
	res, err := c.coll.UpdateMany(ctx, orEmpty(filter), bson.M{"$set": set})
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", c.coll.Name(), err)
	}
	return res.MatchedCount, nil
}

func (c *mongoCollection[T]) Push(ctx context.Context, filter bson.M, key string, value interface{}, set bson.M) (int64, error) {
	update := bson.M{"$push": bson.M{key: value}}
	if len(set) > 0 {
		update["$set"] = set
	}
	res, err := c.coll.UpdateOne(ctx, orEmpty(filter), update)
	if err != nil {
		return 0, fmt.Errorf("push to %s.%s: %w", c.coll.Name(), key, err)
	}
	return res.MatchedCount, nil
}

func (c *mongoCollection[T]) DeleteMany(ctx context.Context, filter bson.M) (int64, error) {
	res, err := c.coll.DeleteMany(ctx, orEmpty(filter))
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", c.coll.Name(), err)
	}
	return res.DeletedCount, nil
}

func orEmpty(filter bson.M) bson.M {
	if filter == nil {
		return bson.M{}
	}
	return filter
}
