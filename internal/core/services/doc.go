// Package services implements the core use cases: library lyric
// ingestion, caption-to-lyric selection and image captioning.
package services
