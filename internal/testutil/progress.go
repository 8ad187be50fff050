package testutil

import "sync"

// MockProgressTracker is a mock implementation of ProgressTracker for testing.
// It is safe for concurrent use, since parts may complete on several goroutines.
type MockProgressTracker struct {
	mu               sync.Mutex
	UpdateCalled     bool
	CompleteCalled   bool
	ErrorCalled      bool
	BytesTransferred int64
	TotalBytes       int64
	LastError        error
	Updates          []ProgressUpdate
}

// ProgressUpdate represents a single progress update event.
type ProgressUpdate struct {
	Transferred int64
	Total       int64
}

// Update records a progress update.
func (m *MockProgressTracker) Update(bytesTransferred, totalBytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalled = true
	m.BytesTransferred = bytesTransferred
	m.TotalBytes = totalBytes
	m.Updates = append(m.Updates, ProgressUpdate{
		Transferred: bytesTransferred,
		Total:       totalBytes,
	})
}

// Complete marks the operation as complete.
func (m *MockProgressTracker) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalled = true
}

// Error records an error.
func (m *MockProgressTracker) Error(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorCalled = true
	m.LastError = err
}

// Snapshot returns a copy of the recorded updates.
func (m *MockProgressTracker) Snapshot() []ProgressUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ProgressUpdate(nil), m.Updates...)
}
