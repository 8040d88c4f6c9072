package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Neighbor is one hit from a nearest-neighbor query.
type Neighbor struct {
	User       string
	Key        string
	Similarity float64
}

// EmbeddingHash returns the source text hash recorded for a stored
// vector, or "" when no vector exists for the key. Callers compare it
// against the current embeddable text to decide whether re-embedding
// is needed.
func (s *Store) EmbeddingHash(ctx context.Context, username, key string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx,
		"SELECT source_text_hash FROM embeddings WHERE cached_for = ? AND repo_key = ?",
		username, key).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return hash, nil
}

// UpsertEmbedding stores a vector for one cached record, replacing any
// previous vector. The dimension is derived from the vector itself.
func (s *Store) UpsertEmbedding(ctx context.Context, username, key string, vector []float32, provider, model, textHash string) error {
	if len(vector) == 0 {
		return fmt.Errorf("empty vector for %s", key)
	}

	query := `
		INSERT INTO embeddings (cached_for, repo_key, vector, dimension, provider, model, source_text_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cached_for, repo_key) DO UPDATE SET
			vector = excluded.vector,
			dimension = excluded.dimension,
			provider = excluded.provider,
			model = excluded.model,
			source_text_hash = excluded.source_text_hash,
			created_at = excluded.created_at
	`
	_, err := s.db.ExecContext(ctx, query,
		username, key, serializeVector(vector), len(vector),
		provider, model, textHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert embedding %s: %w", key, err)
	}
	return nil
}

// DeleteEmbedding removes the stored vector for one record
func (s *Store) DeleteEmbedding(ctx context.Context, username, key string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM embeddings WHERE cached_for = ? AND repo_key = ?", username, key)
	return err
}

// EmbeddingCount reports how many cached records have a stored vector.
func (s *Store) EmbeddingCount(ctx context.Context, username string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM embeddings WHERE cached_for = ?", username).Scan(&count)
	return count, err
}

// NearestNeighbors returns the k records most similar to the query
// vector within one user's cache, optionally restricted to the given
// languages (case-insensitive).
func (s *Store) NearestNeighbors(ctx context.Context, username string, query []float32, k int, languages []string) ([]Neighbor, error) {
	return s.NearestNeighborsMulti(ctx, []string{username}, query, k, languages)
}

// NearestNeighborsMulti runs a nearest-neighbor query across several
// users' caches at once. Results are ordered by similarity descending;
// equal similarities break ties by repo key, then by user, so the same
// cache state always produces the same ordering.
func (s *Store) NearestNeighborsMulti(ctx context.Context, usernames []string, query []float32, k int, languages []string) ([]Neighbor, error) {
	if k <= 0 || len(usernames) == 0 {
		return []Neighbor{}, nil
	}

	if VectorExtensionAvailable {
		return s.neighborsOptimized(ctx, usernames, query, k, languages)
	}
	return s.neighborsFallback(ctx, usernames, query, k, languages)
}

// neighborsOptimized computes cosine distance inside SQLite via the
// sqlite-vec extension. vec_distance_cosine returns a distance, so
// similarity is 1 - distance.
func (s *Store) neighborsOptimized(ctx context.Context, usernames []string, queryVector []float32, k int, languages []string) ([]Neighbor, error) {
	blob := serializeVector(queryVector)

	query := `
		SELECT
			e.cached_for,
			e.repo_key,
			1.0 - vec_distance_cosine(e.vector, ?) AS similarity
		FROM embeddings e
		INNER JOIN repos r ON r.cached_for = e.cached_for AND r.repo_key = e.repo_key
		WHERE e.cached_for IN (` + placeholders(len(usernames)) + `)
	`
	args := []interface{}{blob}
	for _, u := range usernames {
		args = append(args, u)
	}

	query, args = applyLanguageFilter(query, args, languages)
	query += " ORDER BY similarity DESC, e.repo_key ASC, e.cached_for ASC LIMIT ?"
	args = append(args, k)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]Neighbor, 0, k)
	for rows.Next() {
		var n Neighbor
		if err := rows.Scan(&n.User, &n.Key, &n.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, n)
	}
	return results, rows.Err()
}

// neighborsFallback streams every candidate vector and ranks in Go.
// Used by purego builds where no vector extension is loaded.
func (s *Store) neighborsFallback(ctx context.Context, usernames []string, queryVector []float32, k int, languages []string) ([]Neighbor, error) {
	query := `
		SELECT e.cached_for, e.repo_key, e.vector
		FROM embeddings e
		INNER JOIN repos r ON r.cached_for = e.cached_for AND r.repo_key = e.repo_key
		WHERE e.cached_for IN (` + placeholders(len(usernames)) + `)
	`
	args := make([]interface{}, 0, len(usernames)+len(languages))
	for _, u := range usernames {
		args = append(args, u)
	}
	query, args = applyLanguageFilter(query, args, languages)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates := make([]Neighbor, 0, 256)
	for rows.Next() {
		var user, key string
		var blob []byte
		if err := rows.Scan(&user, &key, &blob); err != nil {
			return nil, err
		}

		vector := deserializeVector(blob)
		if len(vector) != len(queryVector) {
			continue // dimension mismatch, stale index entry
		}
		candidates = append(candidates, Neighbor{
			User:       user,
			Key:        key,
			Similarity: cosineSimilarity(queryVector, vector),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		if candidates[i].Key != candidates[j].Key {
			return candidates[i].Key < candidates[j].Key
		}
		return candidates[i].User < candidates[j].User
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	return candidates[:k], nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// applyLanguageFilter restricts results to the given languages,
// matched case-insensitively against the repo's primary language.
func applyLanguageFilter(query string, args []interface{}, languages []string) (string, []interface{}) {
	if len(languages) == 0 {
		return query, args
	}
	query += " AND LOWER(r.language) IN (" + placeholders(len(languages)) + ")"
	for _, lang := range languages {
		args = append(args, strings.ToLower(lang))
	}
	return query, args
}

// serializeVector converts a float32 slice to a little-endian byte blob
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}

// cosineSimilarity computes the cosine similarity between two vectors.
// Stored vectors are unit-normalized, but the norms are recomputed
// here so the function stays correct for arbitrary input.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// SerializeVector is an exported helper for testing
func SerializeVector(vector []float32) []byte {
	return serializeVector(vector)
}

// DeserializeVector is an exported helper for testing
func DeserializeVector(blob []byte) []float32 {
	return deserializeVector(blob)
}

// CosineSimilarity is an exported helper for testing
func CosineSimilarity(a, b []float32) float64 {
	return cosineSimilarity(a, b)
}
