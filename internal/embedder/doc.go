// Package embedder generates vector embeddings for starred-repository
// descriptions and search queries.
//
// Three providers are available:
//   - jina: Jina AI API (JINA_API_KEY)
//   - openai: OpenAI API (OPENAI_API_KEY)
//   - local: offline hashed bag-of-words, no key needed
//
// Selection happens via GHSTARS_EMBEDDING_PROVIDER or, absent that, by
// which API key is set; the local provider is the fallback so semantic
// search never requires network access.
//
// All providers return unit-normalized vectors, so cosine similarity
// between any two of them is a plain dot product. API failures wrap
// the embedding-unavailable domain error; callers are expected to
// degrade to keyword search rather than fail.
package embedder
