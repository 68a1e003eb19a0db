// Package domain contains the core entities of the lyric retrieval
// pipeline: track references, lyric documents, vector records, candidates,
// selections and the error taxonomy shared across services and adapters.
package domain
