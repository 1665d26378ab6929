package services

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driven"
)

// --- Fakes shared by the service tests ---

var fragmentSeq atomic.Int64

// fakeExtractor treats uploaded bytes as plain text and splits paragraphs
// into fragments. Fragment IDs are unique across runs.
type fakeExtractor struct {
	mu      sync.Mutex
	err     error
	gate    chan struct{}
	entered chan struct{}
	calls   int
}

func (f *fakeExtractor) Extract(ctx context.Context, filename string, data []byte) (*driven.Extraction, error) {
	f.mu.Lock()
	f.calls++
	gate, entered, err := f.gate, f.entered, f.err
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	text := string(data)
	var frags []domain.Fragment
	for i, para := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(para) == "" {
			continue
		}
		frags = append(frags, domain.Fragment{
			ID:       fmt.Sprintf("%s#%d", filename, fragmentSeq.Add(1)),
			Filename: filename,
			Position: i,
			Content:  para,
		})
	}
	return &driven.Extraction{Text: text, Fragments: frags}, nil
}

// setGate makes the next Extract calls block until the returned channel is closed.
// Each call announces itself on entered first.
func (f *fakeExtractor) setGate() (gate chan struct{}, entered chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	f.entered = make(chan struct{}, 8)
	return f.gate, f.entered
}

func (f *fakeExtractor) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// fakeFacts returns a fixed fact set.
type fakeFacts struct {
	mu    sync.Mutex
	facts map[string]string
	err   error
	block bool
}

func (f *fakeFacts) ExtractFacts(ctx context.Context, _ string) (map[string]string, error) {
	f.mu.Lock()
	facts, err, block := maps.Clone(f.facts), f.err, f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return facts, err
}

func (f *fakeFacts) Name() string { return "fake" }

func (f *fakeFacts) set(facts map[string]string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.facts, f.err = facts, err
}

// fakeEmbedder maps text onto a tiny concept space where "secret" and
// "confidential" share a dimension, so vector search can find fragments
// the keyword path misses.
type fakeEmbedder struct {
	mu    sync.Mutex
	err   error
	block bool
	calls atomic.Int32
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls.Add(1)
	f.mu.Lock()
	err, block := f.err, f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}

	lower := strings.ToLower(text)
	return []float32{
		float32(strings.Count(lower, "secret") + strings.Count(lower, "confidential")),
		float32(strings.Count(lower, "term")),
		float32(strings.Count(lower, "law")),
		0.1,
	}, nil
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

func (f *fakeEmbedder) Dimensions() int { return 4 }
func (f *fakeEmbedder) ModelName() string { return "fake-embed" }
func (f *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (f *fakeEmbedder) Close() error { return nil }

func (f *fakeEmbedder) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// failingVectorIndex errors on every similarity query.
type failingVectorIndex struct {
	err error
}

func (f *failingVectorIndex) Add(_ context.Context, _ string, _ []float32) error { return nil }
func (f *failingVectorIndex) Delete(_ context.Context, _ []string) error { return nil }
func (f *failingVectorIndex) Similar(_ context.Context, _ []float32, _ []string) (map[string]float64, error) {
	return nil, f.err
}
