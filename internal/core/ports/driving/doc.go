// Package driving provides interfaces for user-facing adapters
// (primary/inbound ports): library ingestion and lyric picking.
package driving
