package mongo

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kbukum/ingestkit/cursor"
	"github.com/kbukum/ingestkit/errors"
)

type cursorDoc struct {
	ID            string    `bson:"_id"`
	LastExecution time.Time `bson:"last_execution"`
}

// CursorStore keeps a workflow's last execution time in one document of
// the state collection.
type CursorStore struct {
	coll Collection
	name string
}

var (
	_ cursor.Store   = (*CursorStore)(nil)
	_ cursor.Clearer = (*CursorStore)(nil)
)

// NewCursorStore creates a CursorStore for the named workflow.
func NewCursorStore(coll Collection, name string) *CursorStore {
	return &CursorStore{coll: coll, name: name}
}

// GetLastExecutionTime returns the stored time, if any.
func (s *CursorStore) GetLastExecutionTime(ctx context.Context) (time.Time, bool, error) {
	var doc cursorDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": s.name}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, errors.StoreError(storeName, "get cursor", err)
	}
	return doc.LastExecution.UTC(), true, nil
}

// SaveLastExecutionTime stores t.
func (s *CursorStore) SaveLastExecutionTime(ctx context.Context, t time.Time) error {
	update := bson.M{"$set": bson.M{"last_execution": t.UTC()}}
	if _, err := s.coll.UpdateOne(ctx, bson.M{"_id": s.name}, update, options.Update().SetUpsert(true)); err != nil {
		return errors.StoreError(storeName, "save cursor", err)
	}
	return nil
}

// Clear removes the stored time.
func (s *CursorStore) Clear(ctx context.Context) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": s.name}); err != nil {
		return errors.StoreError(storeName, "clear cursor", err)
	}
	return nil
}
