// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
)

// ErrReleaseFailed is returned by ImageStoreStub.Release when FailRelease is set.
var ErrReleaseFailed = errors.New("image store unavailable")

// ImageStoreStub is an in-memory image store for tests. It records every release.
type ImageStoreStub struct {
	mu          sync.Mutex
	saved       map[string][]byte
	released    []string
	FailRelease bool
}

// NewImageStoreStub creates an empty in-memory image store.
func NewImageStoreStub() *ImageStoreStub {
	return &ImageStoreStub{saved: make(map[string][]byte)}
}

// Save stores data and returns a URL whose last segment identifies it.
func (s *ImageStoreStub) Save(_ context.Context, ownerID uint, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := fmt.Sprintf("/uploads/%d-%d.webp", ownerID, len(s.saved)+1)
	s.saved[ref] = data
	return ref, nil
}

// Release forgets ref, or fails when FailRelease is set.
func (s *ImageStoreStub) Release(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = append(s.released, ref)
	if s.FailRelease {
		return ErrReleaseFailed
	}
	delete(s.saved, ref)
	return nil
}

// Released returns every ref passed to Release, in call order.
func (s *ImageStoreStub) Released() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.released...)
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
