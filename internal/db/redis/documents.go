package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/menuseed/internal/db"
)

// CreateDocument stores data as JSON under a fresh UUID. SET NX guards against ID reuse.
func (s *Store) CreateDocument(ctx context.Context, collectionID string, data map[string]any) (db.Document, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return db.Document{}, &db.Error{Op: db.OpCreateDocument, Err: fmt.Errorf("marshal: %w", err)}
	}

	id := s.newID()
	cmd := s.b().Set().Key(s.docKey(collectionID, id)).Value(string(raw)).Nx().Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			err = fmt.Errorf("id %s already taken: %w", id, db.ErrRejected)
		}
		return db.Document{}, &db.Error{Op: db.OpCreateDocument, Err: err}
	}

	var stored map[string]any
	if err := json.Unmarshal(raw, &stored); err != nil {
		return db.Document{}, &db.Error{Op: db.OpCreateDocument, Err: err}
	}
	return db.Document{ID: id, Data: stored}, nil
}

// ListDocuments scans the collection keyspace and fetches values in one DoMulti round-trip.
func (s *Store) ListDocuments(ctx context.Context, collectionID string) ([]db.Document, error) {
	keys, err := s.scan(ctx, s.docKey(collectionID, "*"))
	if err != nil {
		return nil, &db.Error{Op: db.OpListDocuments, Err: err}
	}
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(keys))
	for i, key := range keys {
		cmds[i] = s.b().Get().Key(key).Build()
	}

	prefix := s.docKey(collectionID, "")
	docs := make([]db.Document, 0, len(keys))
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		raw, err := res.ToString()
		if err != nil {
			if rueidis.IsRedisNil(err) {
				continue // deleted between SCAN and GET
			}
			return nil, &db.Error{Op: db.OpListDocuments, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
		var data map[string]any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return nil, &db.Error{Op: db.OpListDocuments, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
		docs = append(docs, db.Document{ID: strings.TrimPrefix(keys[i], prefix), Data: data})
	}
	return docs, nil
}

// DeleteDocument removes a document by ID.
func (s *Store) DeleteDocument(ctx context.Context, collectionID, id string) error {
	if err := s.del(ctx, s.docKey(collectionID, id)); err != nil {
		return &db.Error{Op: db.OpDeleteDocument, Err: err}
	}
	return nil
}
