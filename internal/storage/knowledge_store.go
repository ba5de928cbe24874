// Package storage provides the persistent report store and the
// in-memory knowledge document store.
package storage

import (
	"context"
	"fmt"

	"civic-assist/internal/embeddings"
	"civic-assist/internal/models"
)

// KnowledgeStore holds the static knowledge documents. It is populated
// once at construction and never mutated afterwards, so concurrent
// reads need no synchronization.
type KnowledgeStore struct {
	docs  map[string]*models.KnowledgeDocument
	order []string
}

// NewKnowledgeStore builds the store from the given documents,
// computing an embedding for any document that lacks one.
func NewKnowledgeStore(ctx context.Context, embedder embeddings.Embedder, docs []models.KnowledgeDocument) (*KnowledgeStore, error) {
	store := &KnowledgeStore{
		docs: make(map[string]*models.KnowledgeDocument, len(docs)),
	}

	for i := range docs {
		doc := docs[i]
		if doc.ID == "" {
			return nil, fmt.Errorf("knowledge document %q has no id", doc.Title)
		}
		if _, exists := store.docs[doc.ID]; exists {
			return nil, fmt.Errorf("duplicate knowledge document id %s", doc.ID)
		}
		if len(doc.Embedding) == 0 {
			embedding, err := embedder.Embed(ctx, doc.Title+" "+doc.Content)
			if err != nil {
				return nil, fmt.Errorf("failed to embed knowledge document %s: %w", doc.ID, err)
			}
			doc.Embedding = embedding
		}
		store.docs[doc.ID] = &doc
		store.order = append(store.order, doc.ID)
	}

	return store, nil
}

// All returns the documents in insertion order.
func (k *KnowledgeStore) All() []*models.KnowledgeDocument {
	out := make([]*models.KnowledgeDocument, 0, len(k.order))
	for _, id := range k.order {
		out = append(out, k.docs[id])
	}
	return out
}

// Get returns the document with the given id, or nil.
func (k *KnowledgeStore) Get(id string) *models.KnowledgeDocument {
	return k.docs[id]
}

// Len returns the number of documents.
func (k *KnowledgeStore) Len() int {
	return len(k.docs)
}
