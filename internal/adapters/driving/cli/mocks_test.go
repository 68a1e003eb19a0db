package cli

import (
	"context"

	"github.com/verseline/verseline/internal/core/domain"
	"github.com/verseline/verseline/internal/core/ports/driving"
)

// mockIngest implements driving.IngestOrchestrator for testing.
type mockIngest struct {
	state  *domain.SyncState
	status *driving.SyncStatus
	err    error
}

func (m *mockIngest) Sync(_ context.Context, userID string) (*domain.SyncState, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.state != nil {
		return m.state, nil
	}
	return &domain.SyncState{UserID: userID}, nil
}

func (m *mockIngest) Status(_ context.Context, userID string) (*driving.SyncStatus, error) {
	if m.status != nil {
		return m.status, nil
	}
	return &driving.SyncStatus{UserID: userID}, nil
}

// mockPicker implements driving.LyricPicker for testing.
type mockPicker struct {
	selections []domain.Selection
	err        error
	lastCount  int
}

func (m *mockPicker) Pick(_ context.Context, _, _ string, count int) ([]domain.Selection, error) {
	m.lastCount = count
	if m.err != nil {
		return nil, m.err
	}
	return m.selections, nil
}

// mockCaptioner implements driving.Captioner for testing.
type mockCaptioner struct {
	caption string
	err     error
}

func (m *mockCaptioner) Caption(_ context.Context, _ []byte, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.caption, nil
}

// swapServices installs mocks and returns a restore func.
func swapServices(ingest driving.IngestOrchestrator, picker driving.LyricPicker, caption driving.Captioner) func() {
	oldIngest, oldPicker, oldCaption := ingestOrchestrator, lyricPicker, captioner
	ingestOrchestrator = ingest
	lyricPicker = picker
	captioner = caption
	return func() {
		ingestOrchestrator = oldIngest
		lyricPicker = oldPicker
		captioner = oldCaption
	}
}
