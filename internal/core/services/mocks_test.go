package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/verseline/verseline/internal/core/domain"
	"github.com/verseline/verseline/internal/core/ports/driven"
)

// fakeLibrary returns a fixed track list.
type fakeLibrary struct {
	tracks []domain.TrackRef
	err    error
}

func (f *fakeLibrary) ListTracks(_ context.Context, _ string) ([]domain.TrackRef, error) {
	return f.tracks, f.err
}

// fakeSource serves raw lyrics by track title and counts fetches.
type fakeSource struct {
	mu     sync.Mutex
	lyrics map[string]string
	calls  int
	err    error

	// release, when non-nil, blocks every fetch until closed.
	release chan struct{}
}

func (f *fakeSource) FetchLyrics(ctx context.Context, title, _ string) (string, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	f.calls++
	raw, ok := f.lyrics[title]
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if !ok {
		return "", domain.ErrNotFound
	}
	return raw, nil
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeEmbedder returns canned vectors per text, with optional per-text
// failures. Unknown texts get a default vector.
type fakeEmbedder struct {
	vectors map[string][]float32
	fail    map[string]bool
	failErr error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.fail[text] {
		if f.failErr != nil {
			return nil, f.failErr
		}
		return nil, fmt.Errorf("embedding backend unavailable")
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int   { return 3 }
func (f *fakeEmbedder) ModelName() string { return "fake-embedding" }

// fakeLyricStore keeps documents in memory; its listing is the manifest.
type fakeLyricStore struct {
	mu   sync.Mutex
	docs map[string]map[string]domain.LyricDocument
}

func newFakeLyricStore() *fakeLyricStore {
	return &fakeLyricStore{docs: make(map[string]map[string]domain.LyricDocument)}
}

func (f *fakeLyricStore) Put(_ context.Context, doc domain.LyricDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.docs[doc.OwnerUserID] == nil {
		f.docs[doc.OwnerUserID] = make(map[string]domain.LyricDocument)
	}
	f.docs[doc.OwnerUserID][doc.Track.ProviderTrackID] = doc
	return nil
}

func (f *fakeLyricStore) Get(_ context.Context, userID, trackID string) (*domain.LyricDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[userID][trackID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

func (f *fakeLyricStore) ListTrackIDs(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id := range f.docs[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeLyricStore) remove(userID, trackID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs[userID], trackID)
}

// fakeLLM returns a canned answer.
type fakeLLM struct {
	answer string
	err    error

	lastPrompt string
}

func (f *fakeLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	if len(messages) > 0 {
		f.lastPrompt = messages[len(messages)-1].Content
	}
	return f.answer, f.err
}

func (f *fakeLLM) ModelName() string { return "fake-llm" }

// fakeVision returns a canned description.
type fakeVision struct {
	description string
	err         error
}

func (f *fakeVision) Describe(_ context.Context, _ []byte, _, _ string) (string, error) {
	return f.description, f.err
}

// fakePrompts serves minimal templates compatible with the services'
// fmt arguments.
type fakePrompts struct{}

func (fakePrompts) Load(name string) (string, error) {
	switch name {
	case driven.PromptCaption:
		return "Describe this image in one first-person sentence.", nil
	case driven.PromptPickSingle:
		return "Caption: %s\nCandidates:\n%s", nil
	case driven.PromptPickMulti:
		return "Pick %d lines.\nCaption: %s\nCandidates:\n%s", nil
	}
	return "", fmt.Errorf("unknown prompt %q", name)
}

// spyIndex records Query arguments around a delegate index.
type spyIndex struct {
	driven.VectorIndex
	lastTopK int
}

func (s *spyIndex) Query(ctx context.Context, userID string, vector []float32, topK int) ([]domain.Candidate, error) {
	s.lastTopK = topK
	return s.VectorIndex.Query(ctx, userID, vector, topK)
}
