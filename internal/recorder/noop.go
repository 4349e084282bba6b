package recorder

import "context"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ context.Context, snap *RunSnapshot) (string, error) {
	return snap.ID, nil
}
func (n *NoopRecorder) RecentRuns(context.Context, int) ([]RunRecord, error)       { return nil, nil }
func (n *NoopRecorder) RunSignals(context.Context, string) ([]SignalRecord, error) { return nil, nil }
func (n *NoopRecorder) Close() error                                               { return nil }
