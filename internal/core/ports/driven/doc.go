// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the lyrics provider, the music library,
// embedding and language model services, the vector index, blob storage
// and the local catalogue.
package driven
