package mcp

import (
	"github.com/verseline/verseline/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Picker selects lyric lines for captions.
	Picker driving.LyricPicker

	// Ingest triggers library syncs. Optional; when nil the sync tool
	// is not registered.
	Ingest driving.IngestOrchestrator
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Picker == nil {
		return ErrMissingPicker
	}
	return nil
}
