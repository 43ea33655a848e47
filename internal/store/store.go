// Package store persists all pipeline entities in one document collection
// addressed by composite (PK, SK) keys, with a secondary (IPK, ISK) index
// for the swapped access patterns. Implementations must be safe for
// concurrent use.
package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// Page controls query pagination. A zero Limit uses the implementation
// default. StartAfter is the continuation token of the previous page;
// callers loop until the returned token is empty.
type Page struct {
	Limit      int
	StartAfter string
}

// QueryResult is one page of raw items plus the continuation token for the
// next page, empty when the result set is exhausted.
type QueryResult struct {
	Items []bson.Raw
	Next  string
}

// Table is the low-level single-table contract: point writes, point reads,
// and the two query patterns. Secondary-index reads may lag primary writes;
// callers must treat missing just-written records as retryable.
type Table interface {
	// Put writes a document, fully replacing any prior value at the same
	// (pk, sk). The document must carry its own key fields.
	Put(ctx context.Context, pk, sk string, doc any) error

	// Get reads the single document at (pk, sk). Returns ErrNotFound when
	// no such document exists.
	Get(ctx context.Context, pk, sk string) (bson.Raw, error)

	// QueryPK returns documents sharing a primary key, optionally narrowed
	// to sort keys beginning with skPrefix.
	QueryPK(ctx context.Context, pk, skPrefix string, page Page) (QueryResult, error)

	// QueryIndex returns documents sharing a secondary-index key.
	QueryIndex(ctx context.Context, ipk string, page Page) (QueryResult, error)

	// Close releases connection resources.
	Close(ctx context.Context) error
}
