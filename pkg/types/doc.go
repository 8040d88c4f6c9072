// Package types defines the shared data model for the star cache:
// repository records, merge reports, search results and the domain
// error taxonomy. It has no dependencies on the storage or network
// layers so every other package can import it freely.
package types
