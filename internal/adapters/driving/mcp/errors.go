// Package mcp provides an MCP (Model Context Protocol) server adapter
// for Verseline. It lets AI assistants pick lyric lines for captions and
// trigger library syncs.
package mcp

import "errors"

// ErrMissingPicker is returned when the lyric picker is not provided.
var ErrMissingPicker = errors.New("mcp: lyric picker is required")
