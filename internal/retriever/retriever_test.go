package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/sandevgo/polychat/internal/core"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vector, f.err
}

type fakeIndex struct {
	chunks  []core.Chunk
	vectors [][]float32
	err     error
}

func (f *fakeIndex) AddChunks(ctx context.Context, chunks []core.Chunk, vectors [][]float32) error {
	return nil
}

func (f *fakeIndex) AllVectors(ctx context.Context) ([]core.Chunk, [][]float32, error) {
	return f.chunks, f.vectors, f.err
}

func (f *fakeIndex) Count(ctx context.Context) (int, error) {
	return len(f.chunks), nil
}

func TestRetrieverQuery(t *testing.T) {
	index := &fakeIndex{
		chunks: []core.Chunk{
			{ID: 1, Text: "x axis"},
			{ID: 2, Text: "y axis"},
			{ID: 3, Text: "diagonal"},
		},
		vectors: [][]float32{
			{1, 0},
			{0, 1},
			{1, 1},
		},
	}

	tests := []struct {
		name     string
		query    []float32
		k        int
		expected []string
	}{
		{
			name:     "nearest first",
			query:    []float32{1, 0.1},
			k:        3,
			expected: []string{"x axis", "diagonal", "y axis"},
		},
		{
			name:     "bounded by k",
			query:    []float32{0, 1},
			k:        1,
			expected: []string{"y axis"},
		},
		{
			name:     "k larger than index",
			query:    []float32{1, 0.9},
			k:        10,
			expected: []string{"diagonal", "x axis", "y axis"},
		},
		{
			name:     "zero k",
			query:    []float32{1, 0},
			k:        0,
			expected: nil,
		},
		{
			name:     "negative k",
			query:    []float32{1, 0},
			k:        -2,
			expected: nil,
		},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(&fakeEmbedder{vector: tt.query}, index)
			got, err := r.Query(ctx, "question", tt.k)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %d chunks, got %d", len(tt.expected), len(got))
			}
			for i, ch := range got {
				if ch.Text != tt.expected[i] {
					t.Errorf("Chunk %d = %q, want %q", i, ch.Text, tt.expected[i])
				}
			}
		})
	}
}

func TestRetrieverQueryEmptyIndex(t *testing.T) {
	r := New(&fakeEmbedder{vector: []float32{1, 0}}, &fakeIndex{})
	got, err := r.Query(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("Query on empty index: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no chunks, got %d", len(got))
	}
}

func TestRetrieverQueryIndexError(t *testing.T) {
	r := New(&fakeEmbedder{vector: []float32{1}}, &fakeIndex{err: errors.New("db locked")})
	_, err := r.Query(context.Background(), "anything", 3)

	var retErr *core.RetrievalError
	if !errors.As(err, &retErr) {
		t.Fatalf("Expected RetrievalError, got %v", err)
	}
}

func TestRetrieverQueryEmbedError(t *testing.T) {
	index := &fakeIndex{
		chunks:  []core.Chunk{{ID: 1, Text: "a"}},
		vectors: [][]float32{{1}},
	}
	r := New(&fakeEmbedder{err: errors.New("embedder down")}, index)
	_, err := r.Query(context.Background(), "anything", 3)

	var retErr *core.RetrievalError
	if !errors.As(err, &retErr) {
		t.Fatalf("Expected RetrievalError, got %v", err)
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosine(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("cosine(%v, %v) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
