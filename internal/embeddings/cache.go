package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/quanticsoul4772/cogmap/internal/logging"
	"github.com/quanticsoul4772/cogmap/internal/pipeline"
)

var cacheLog = logging.New("[embeddings.cache] ")

// Cache backs the Adapter's paragraph-embedding cache, adapted from the
// teacher's internal/knowledge/vector_store.go. Exact-key lookups are
// served from an in-memory map (fast, correct within a process); every
// write is also mirrored into a chromem-go collection so the embeddings
// survive the process across runs over the same corpus.
type Cache struct {
	mu         sync.RWMutex
	hot        map[string]pipeline.Embedding
	collection *chromem.Collection
}

// NewCache opens (or creates) a chromem-go collection at persistPath, or
// an in-memory one if persistPath is empty, mirroring
// knowledge.NewVectorStore's persistent/in-memory branch.
func NewCache(persistPath string) (*Cache, error) {
	var db *chromem.DB
	var err error

	if persistPath != "" {
		db, err = chromem.NewPersistentDB(persistPath, false)
	} else {
		db = chromem.NewDB()
	}
	if err != nil {
		return nil, fmt.Errorf("open embedding cache: %w", err)
	}

	collection, err := db.CreateCollection("paragraph-embeddings", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache collection: %w", err)
	}

	return &Cache{hot: make(map[string]pipeline.Embedding), collection: collection}, nil
}

// Get returns the cached embedding for text, if present in this process.
func (c *Cache) Get(text string) (pipeline.Embedding, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.hot[hashKey(text)]
	return v, ok
}

// Put stores the embedding for text, both in the hot map and in the
// chromem-go collection. Get reads only the in-process hot map; entries
// persisted in the collection are not read back.
func (c *Cache) Put(text string, embedding pipeline.Embedding) {
	key := hashKey(text)

	c.mu.Lock()
	c.hot[key] = embedding
	c.mu.Unlock()

	if err := c.collection.AddDocument(context.Background(), chromem.Document{
		ID:        key,
		Content:   text,
		Embedding: []float32(embedding),
	}); err != nil {
		cacheLog.Warnf("failed to persist embedding for cache key %s: %v", key, err)
	}
}

func hashKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
