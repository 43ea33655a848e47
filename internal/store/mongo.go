package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned by Get when no document exists at (pk, sk).
var ErrNotFound = errors.New("store: item not found")

const defaultPageLimit = 100

// mongoTable implements Table on a MongoDB collection.
type mongoTable struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoTable connects to MongoDB, verifies connectivity with a ping, and
// ensures the primary and secondary indexes exist.
func NewMongoTable(ctx context.Context, uri, database, collection string) (Table, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}

	coll := client.Database(database).Collection(collection)

	unique := true
	sparse := true
	_, err = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pk", Value: 1}, {Key: "sk", Value: 1}},
			Options: &options.IndexOptions{Unique: &unique},
		},
		{
			Keys:    bson.D{{Key: "ipk", Value: 1}, {Key: "isk", Value: 1}},
			Options: &options.IndexOptions{Sparse: &sparse},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create indexes: %w", err)
	}

	return &mongoTable{client: client, coll: coll}, nil
}

func (t *mongoTable) Put(ctx context.Context, pk, sk string, doc any) error {
	upsert := true
	_, err := t.coll.ReplaceOne(ctx,
		bson.M{"pk": pk, "sk": sk},
		doc,
		&options.ReplaceOptions{Upsert: &upsert},
	)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", pk, sk, err)
	}
	return nil
}

func (t *mongoTable) Get(ctx context.Context, pk, sk string) (bson.Raw, error) {
	var raw bson.Raw
	err := t.coll.FindOne(ctx, bson.M{"pk": pk, "sk": sk}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", pk, sk, err)
	}
	return raw, nil
}

func (t *mongoTable) QueryPK(ctx context.Context, pk, skPrefix string, page Page) (QueryResult, error) {
	filter := bson.M{"pk": pk}
	if skPrefix != "" {
		filter["sk"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(skPrefix)}
	}
	return t.query(ctx, filter, page)
}

func (t *mongoTable) QueryIndex(ctx context.Context, ipk string, page Page) (QueryResult, error) {
	return t.query(ctx, bson.M{"ipk": ipk}, page)
}

// query pages through matching documents ordered by _id. Retrieval order
// carries no meaning for callers; they sort by their own attributes.
func (t *mongoTable) query(ctx context.Context, filter bson.M, page Page) (QueryResult, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if page.StartAfter != "" {
		after, err := primitive.ObjectIDFromHex(page.StartAfter)
		if err != nil {
			return QueryResult{}, fmt.Errorf("bad continuation token %q: %w", page.StartAfter, err)
		}
		filter["_id"] = bson.M{"$gt": after}
	}

	lim := int64(limit)
	cursor, err := t.coll.Find(ctx, filter, &options.FindOptions{
		Sort:  bson.D{{Key: "_id", Value: 1}},
		Limit: &lim,
	})
	if err != nil {
		return QueryResult{}, fmt.Errorf("query: %w", err)
	}
	defer cursor.Close(ctx)

	result := QueryResult{}
	var lastID primitive.ObjectID
	for cursor.Next(ctx) {
		raw := make(bson.Raw, len(cursor.Current))
		copy(raw, cursor.Current)
		result.Items = append(result.Items, raw)
		if id, ok := raw.Lookup("_id").ObjectIDOK(); ok {
			lastID = id
		}
	}
	if err := cursor.Err(); err != nil {
		return QueryResult{}, fmt.Errorf("cursor: %w", err)
	}

	if len(result.Items) == limit && !lastID.IsZero() {
		result.Next = lastID.Hex()
	}
	return result, nil
}

func (t *mongoTable) Close(ctx context.Context) error {
	return t.client.Disconnect(ctx)
}
