package types

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
	"time"
)

// RepoRecord is a starred repository as cached locally. Records are
// immutable once stored; a refetch replaces the whole record.
type RepoRecord struct {
	Owner       string    `json:"owner"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Language    string    `json:"language,omitempty"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	OpenIssues  int       `json:"open_issues"`
	URL         string    `json:"url"`
	Topics      []string  `json:"topics,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	PushedAt    time.Time `json:"pushed_at"`
	StarredAt   time.Time `json:"starred_at"`
}

// Key returns the composite identity "owner/name", unique within one
// user's cache.
func (r *RepoRecord) Key() string {
	return r.Owner + "/" + r.Name
}

// EmbedText builds the text that feeds the embedding model: name,
// language, description and topics joined into one line.
func (r *RepoRecord) EmbedText() string {
	parts := make([]string, 0, 4)
	parts = append(parts, r.Name)
	if r.Language != "" {
		parts = append(parts, r.Language)
	}
	if r.Description != "" {
		parts = append(parts, r.Description)
	}
	if len(r.Topics) > 0 {
		parts = append(parts, strings.Join(r.Topics, " "))
	}
	return strings.Join(parts, " ")
}

// ContentHash is a SHA-256 over every mutable attribute. Two records
// with equal hashes are considered identical by the merge policy.
func (r *RepoRecord) ContentHash() string {
	topics := make([]string, len(r.Topics))
	copy(topics, r.Topics)
	sort.Strings(topics)

	var b strings.Builder
	for _, field := range []string{
		r.Owner, r.Name, r.Description, r.Language, r.URL,
		strconv.Itoa(r.Stars), strconv.Itoa(r.Forks), strconv.Itoa(r.OpenIssues),
		r.CreatedAt.UTC().Format(time.RFC3339),
		r.UpdatedAt.UTC().Format(time.RFC3339),
		r.PushedAt.UTC().Format(time.RFC3339),
		r.StarredAt.UTC().Format(time.RFC3339),
		strings.Join(topics, ","),
	} {
		b.WriteString(field)
		b.WriteByte('\x1f')
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// HashText computes the SHA-256 hex digest of an embeddable text. The
// embedding index compares these digests to decide whether a stored
// vector is still valid.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// SplitKey breaks an "owner/name" key back into its parts. The second
// return is false when the string is not a well-formed key.
func SplitKey(key string) (owner, name string, ok bool) {
	owner, name, found := strings.Cut(key, "/")
	if !found || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", false
	}
	return owner, name, true
}
