package relayserver

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Talha76/Together/internal/domain"
)

// blobEntry is one stored ciphertext blob. Everything here is opaque to the
// server; Name is a client-chosen label, not a filesystem path.
type blobEntry struct {
	data     []byte
	name     string
	storedAt time.Time
}

// BlobStore keeps encrypted blobs in memory until their TTL expires. Links
// are unguessable UUIDs; possession of a link without the shared secret
// yields only ciphertext.
type BlobStore struct {
	mu      sync.RWMutex
	blobs   map[domain.BlobLink]blobEntry
	ttl     time.Duration
	maxSize int64
	now     func() time.Time
}

// NewBlobStore builds a BlobStore. maxSize caps a single blob; zero means
// no cap.
func NewBlobStore(ttl time.Duration, maxSize int64, now func() time.Time) *BlobStore {
	if now == nil {
		now = time.Now
	}
	return &BlobStore{
		blobs:   make(map[domain.BlobLink]blobEntry),
		ttl:     ttl,
		maxSize: maxSize,
		now:     now,
	}
}

// ErrBlobTooLarge rejects blobs above the configured cap.
var ErrBlobTooLarge = errors.New("together: blob exceeds size limit")

// Store keeps data and returns its retrieval link.
func (b *BlobStore) Store(data []byte, name string) (domain.BlobLink, error) {
	if b.maxSize > 0 && int64(len(data)) > b.maxSize {
		return "", ErrBlobTooLarge
	}
	link := domain.BlobLink(uuid.NewString())
	b.mu.Lock()
	b.blobs[link] = blobEntry{data: data, name: name, storedAt: b.now()}
	b.mu.Unlock()
	return link, nil
}

// Retrieve returns the blob for link, or ErrBlobNotFound for unknown and
// expired links alike.
func (b *BlobStore) Retrieve(link domain.BlobLink) ([]byte, string, error) {
	b.mu.RLock()
	entry, ok := b.blobs[link]
	b.mu.RUnlock()
	if !ok || b.now().Sub(entry.storedAt) > b.ttl {
		return nil, "", domain.ErrBlobNotFound
	}
	return entry.data, entry.name, nil
}

// Sweep deletes expired blobs and reports how many went.
func (b *BlobStore) Sweep() int {
	horizon := b.now().Add(-b.ttl)
	b.mu.Lock()
	defer b.mu.Unlock()
	removed := 0
	for link, entry := range b.blobs {
		if entry.storedAt.Before(horizon) {
			delete(b.blobs, link)
			removed++
		}
	}
	return removed
}

// Len reports the number of live blobs.
func (b *BlobStore) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.blobs)
}
