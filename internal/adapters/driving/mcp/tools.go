package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/verseline/verseline/internal/core/domain"
)

// PickInput is the input schema for the pick_lyric tool.
type PickInput struct {
	UserID  string `json:"user_id" jsonschema:"the user whose indexed library to search"`
	Caption string `json:"caption" jsonschema:"the photo caption to match lyric lines against"`
	Count   int    `json:"count,omitempty" jsonschema:"number of lines to pick (default 1)"`
}

// PickOutput is the output schema for the pick_lyric tool.
type PickOutput struct {
	Selections []SelectionOutput `json:"selections"`
	Count      int               `json:"count"`
}

// SelectionOutput represents one picked lyric line.
type SelectionOutput struct {
	Text   string `json:"text"`
	Track  string `json:"track"`
	Artist string `json:"artist"`
}

// SyncInput is the input schema for the sync_library tool.
type SyncInput struct {
	UserID string `json:"user_id" jsonschema:"the user whose library to index"`
}

// SyncOutput is the output schema for the sync_library tool.
type SyncOutput struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "pick_lyric",
		Description: "Pick the lyric lines from a user's indexed library that best match a caption",
	}, s.handlePick)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "sync_library",
			Description: "Index the lyrics of a user's saved tracks",
		}, s.handleSync)
	}
}

// handlePick handles the pick_lyric tool invocation.
func (s *Server) handlePick(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PickInput,
) (*mcp.CallToolResult, PickOutput, error) {
	count := input.Count
	if count <= 0 {
		count = 1
	}

	selections, err := s.ports.Picker.Pick(ctx, input.UserID, input.Caption, count)
	if err != nil {
		// An empty namespace is a normal answer for the assistant, not a
		// protocol error.
		if errors.Is(err, domain.ErrNotFound) {
			return nil, PickOutput{Selections: []SelectionOutput{}}, nil
		}
		return nil, PickOutput{}, err
	}

	output := PickOutput{
		Selections: make([]SelectionOutput, len(selections)),
		Count:      len(selections),
	}
	for i, sel := range selections {
		output.Selections[i] = SelectionOutput{
			Text:   sel.Text,
			Track:  sel.Track,
			Artist: sel.Artist,
		}
	}
	return nil, output, nil
}

// handleSync handles the sync_library tool invocation.
func (s *Server) handleSync(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SyncInput,
) (*mcp.CallToolResult, SyncOutput, error) {
	state, err := s.ports.Ingest.Sync(ctx, input.UserID)
	if err != nil {
		return nil, SyncOutput{}, err
	}
	return nil, SyncOutput{
		Processed: state.Processed,
		Skipped:   state.Skipped,
		Failed:    state.Failed,
	}, nil
}
