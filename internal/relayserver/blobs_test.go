package relayserver

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/Talha76/Together/internal/domain"
)

func TestBlobStoreRoundTrip(t *testing.T) {
	clock := newFakeClock()
	store := NewBlobStore(time.Hour, 0, clock.Now)

	data := []byte("opaque ciphertext")
	link, err := store.Store(data, "notes.bin")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	got, name, err := store.Retrieve(link)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if !bytes.Equal(got, data) || name != "notes.bin" {
		t.Fatalf("retrieved (%q, %q), want (%q, %q)", got, name, data, "notes.bin")
	}
}

func TestBlobStoreUnknownLink(t *testing.T) {
	store := NewBlobStore(time.Hour, 0, newFakeClock().Now)
	if _, _, err := store.Retrieve("no-such-link"); !errors.Is(err, domain.ErrBlobNotFound) {
		t.Fatalf("unknown link: got %v, want ErrBlobNotFound", err)
	}
}

func TestBlobStoreExpiry(t *testing.T) {
	clock := newFakeClock()
	store := NewBlobStore(time.Hour, 0, clock.Now)

	link, err := store.Store([]byte("short-lived"), "")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	clock.Advance(2 * time.Hour)

	if _, _, err := store.Retrieve(link); !errors.Is(err, domain.ErrBlobNotFound) {
		t.Fatalf("expired link: got %v, want ErrBlobNotFound", err)
	}
	if removed := store.Sweep(); removed != 1 {
		t.Errorf("sweep removed %d, want 1", removed)
	}
	if store.Len() != 0 {
		t.Errorf("len after sweep %d, want 0", store.Len())
	}
}

func TestBlobStoreSizeCap(t *testing.T) {
	store := NewBlobStore(time.Hour, 16, newFakeClock().Now)
	if _, err := store.Store(make([]byte, 17), ""); !errors.Is(err, ErrBlobTooLarge) {
		t.Fatalf("oversized blob: got %v, want ErrBlobTooLarge", err)
	}
	if _, err := store.Store(make([]byte, 16), ""); err != nil {
		t.Fatalf("blob at the cap: %v", err)
	}
}

func TestBlobStoreDistinctLinks(t *testing.T) {
	store := NewBlobStore(time.Hour, 0, newFakeClock().Now)
	a, _ := store.Store([]byte("one"), "")
	b, _ := store.Store([]byte("two"), "")
	if a == b {
		t.Fatal("two stores produced the same link")
	}
}
