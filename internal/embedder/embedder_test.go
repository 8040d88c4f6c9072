package embedder

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghstars/gh-stars/pkg/types"
)

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func TestLocalProviderDeterministic(t *testing.T) {
	l, err := NewLocalProvider(nil)
	require.NoError(t, err)
	ctx := context.Background()

	a, err := l.GenerateEmbedding(ctx, EmbeddingRequest{Text: "a cli tool written in rust"})
	require.NoError(t, err)
	b, err := l.GenerateEmbedding(ctx, EmbeddingRequest{Text: "a cli tool written in rust"})
	require.NoError(t, err)

	assert.Equal(t, a.Vector, b.Vector)
	assert.Equal(t, ProviderLocal, a.Provider)
	assert.Equal(t, LocalDimension, a.Dimension)
}

func TestLocalProviderUnitNorm(t *testing.T) {
	l, err := NewLocalProvider(nil)
	require.NoError(t, err)

	emb, err := l.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "vector search for starred repositories"})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, vectorNorm(emb.Vector), 1e-5)
}

func TestLocalProviderSimilarity(t *testing.T) {
	l, err := NewLocalProvider(nil)
	require.NoError(t, err)
	ctx := context.Background()

	rustCLI, err := l.GenerateEmbedding(ctx, EmbeddingRequest{Text: "fast cli tool in rust"})
	require.NoError(t, err)
	rustTUI, err := l.GenerateEmbedding(ctx, EmbeddingRequest{Text: "terminal cli tool in rust"})
	require.NoError(t, err)
	unrelated, err := l.GenerateEmbedding(ctx, EmbeddingRequest{Text: "kubernetes operator framework"})
	require.NoError(t, err)

	// Shared tokens should pull embeddings together
	assert.Greater(t, dot(rustCLI.Vector, rustTUI.Vector), dot(rustCLI.Vector, unrelated.Vector))
}

func TestLocalProviderEmptyText(t *testing.T) {
	l, err := NewLocalProvider(nil)
	require.NoError(t, err)

	_, err = l.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: ""})
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestLocalProviderBatch(t *testing.T) {
	l, err := NewLocalProvider(nil)
	require.NoError(t, err)

	resp, err := l.GenerateBatch(context.Background(), BatchEmbeddingRequest{
		Texts: []string{"one", "two", "three"},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Embeddings, 3)
	assert.Equal(t, ProviderLocal, resp.Provider)
}

func TestCacheHit(t *testing.T) {
	cache := NewCache(16)
	l, err := NewLocalProvider(cache)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = l.GenerateEmbedding(ctx, EmbeddingRequest{Text: "cached text"})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Size())

	_, err = l.GenerateEmbedding(ctx, EmbeddingRequest{Text: "cached text"})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Size())
}

func TestCacheReturnsCopy(t *testing.T) {
	cache := NewCache(16)
	emb := &Embedding{Vector: []float32{1, 0}, Dimension: 2, Hash: "h"}
	cache.Set("h", emb)

	got, ok := cache.Get("h")
	require.True(t, ok)
	got.Vector[0] = 99

	again, ok := cache.Get("h")
	require.True(t, ok)
	assert.Equal(t, float32(1), again.Vector[0])
}

func TestNormalizeVector(t *testing.T) {
	normalized := NormalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, float64(normalized[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(normalized[1]), 1e-6)

	zero := []float32{0, 0}
	assert.Equal(t, zero, NormalizeVector(zero))
}

func TestOpenAIProviderSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"embedding":[3,4],"index":0}],"model":"text-embedding-3-small"}`))
	}))
	defer server.Close()

	p, err := NewOpenAIProvider("test-key", nil)
	require.NoError(t, err)
	p.endpoint = server.URL

	emb, err := p.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "hello"})
	require.NoError(t, err)

	// Vectors come back unit-normalized
	assert.InDelta(t, 1.0, vectorNorm(emb.Vector), 1e-5)
	assert.Equal(t, ProviderOpenAI, emb.Provider)
}

func TestOpenAIProviderFailureWrapsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	p, err := NewOpenAIProvider("test-key", nil)
	require.NoError(t, err)
	p.endpoint = server.URL

	_, err = p.GenerateEmbedding(context.Background(), EmbeddingRequest{Text: "hello"})
	assert.ErrorIs(t, err, types.ErrEmbeddingUnavailable)
}

func TestJinaProviderRequiresKey(t *testing.T) {
	t.Setenv(EnvJinaAPIKey, "")
	_, err := NewJinaProvider("", nil)
	assert.ErrorIs(t, err, ErrNoProviderEnabled)
}

func TestRetryWithBackoffRecovers(t *testing.T) {
	attempts := 0
	config := RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, Multiplier: 2}

	result, err := retryWithBackoff(context.Background(), config, func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", assert.AnError
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 2, attempts)
}

func TestFactorySelection(t *testing.T) {
	t.Setenv(EnvProvider, "")
	t.Setenv(EnvJinaAPIKey, "")
	t.Setenv(EnvOpenAIAPIKey, "")
	assert.Equal(t, ProviderLocal, DetectProvider())

	t.Setenv(EnvOpenAIAPIKey, "key")
	assert.Equal(t, ProviderOpenAI, DetectProvider())

	t.Setenv(EnvJinaAPIKey, "key")
	assert.Equal(t, ProviderJina, DetectProvider())

	t.Setenv(EnvProvider, "local")
	assert.Equal(t, ProviderLocal, DetectProvider())

	e, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ProviderLocal, e.Provider())
}
