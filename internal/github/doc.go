// Package github is a minimal client for the GitHub REST API, covering
// only the starred-repository listing. It requests the star+json media
// type so each repository carries the time it was starred, follows
// Link-header pagination, and maps HTTP failures onto the domain error
// taxonomy (auth, rate limit, network).
package github
