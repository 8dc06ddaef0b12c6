package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rednote/internal/interfaces"
	"github.com/ternarybob/rednote/pkg/models"
)

// mockNoteStore implements interfaces.NoteStorage for testing
type mockNoteStore struct {
	countFunc func() (int, error)
}

func (m *mockNoteStore) Save(ctx context.Context, note *models.CachedNote) error { return nil }
func (m *mockNoteStore) GetByID(ctx context.Context, id string) (*models.CachedNote, error) {
	return nil, interfaces.ErrNoteNotFound
}
func (m *mockNoteStore) GetByURL(ctx context.Context, url string) (*models.CachedNote, error) {
	return nil, interfaces.ErrNoteNotFound
}
func (m *mockNoteStore) Delete(ctx context.Context, id string) error { return nil }
func (m *mockNoteStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, nil
}

func (m *mockNoteStore) Count(ctx context.Context) (int, error) {
	if m.countFunc != nil {
		return m.countFunc()
	}
	return 0, nil
}

// mockKVStore implements interfaces.KVStorage for testing
type mockKVStore struct{}

func (m *mockKVStore) Get(ctx context.Context, key string) (string, error) {
	return "", interfaces.ErrKeyNotFound
}
func (m *mockKVStore) Set(ctx context.Context, key, value string) error { return nil }
func (m *mockKVStore) Delete(ctx context.Context, key string) error     { return nil }
func (m *mockKVStore) Keys(ctx context.Context) ([]string, error)       { return nil, nil }

// mockLoginEventStore implements interfaces.LoginEventStorage for testing
type mockLoginEventStore struct{}

func (m *mockLoginEventStore) Append(ctx context.Context, event *models.LoginEvent) error {
	return nil
}
func (m *mockLoginEventStore) Recent(ctx context.Context, limit int) ([]*models.LoginEvent, error) {
	return nil, nil
}
func (m *mockLoginEventStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, nil
}

// mockStorage implements interfaces.StorageManager for testing
type mockStorage struct {
	notes *mockNoteStore
}

func (m *mockStorage) NoteStorage() interfaces.NoteStorage {
	if m.notes != nil {
		return m.notes
	}
	return &mockNoteStore{}
}
func (m *mockStorage) KVStorage() interfaces.KVStorage                 { return &mockKVStore{} }
func (m *mockStorage) LoginEventStorage() interfaces.LoginEventStorage { return &mockLoginEventStore{} }
func (m *mockStorage) RunValueLogGC(discardRatio float64) error        { return nil }
func (m *mockStorage) Close() error                                    { return nil }

// mockScheduler implements interfaces.SchedulerService for testing
type mockScheduler struct {
	running bool
}

func (m *mockScheduler) RegisterJob(name, schedule, description string, handler func() error) error {
	return nil
}
func (m *mockScheduler) Start() error    { return nil }
func (m *mockScheduler) Stop() error     { return nil }
func (m *mockScheduler) IsRunning() bool { return m.running }
func (m *mockScheduler) GetAllJobStatuses() map[string]*interfaces.JobStatus {
	return map[string]*interfaces.JobStatus{}
}

func TestIndexHandler_ServiceInfo(t *testing.T) {
	handler := NewStatusHandler(&mockStorage{}, &mockLoginService{}, nil, arbor.NewLogger())
	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()

	handler.IndexHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["service"] != "rednote" {
		t.Errorf("Expected service 'rednote', got %v", response["service"])
	}
	if response["version"] == nil || response["version"] == "" {
		t.Error("Expected version in service info")
	}
}

func TestIndexHandler_UnknownPath(t *testing.T) {
	handler := NewStatusHandler(&mockStorage{}, &mockLoginService{}, nil, arbor.NewLogger())
	req := httptest.NewRequest("GET", "/bogus", nil)
	rec := httptest.NewRecorder()

	handler.IndexHandler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown path, got %d", rec.Code)
	}
}

func TestGetStatusHandler(t *testing.T) {
	storage := &mockStorage{notes: &mockNoteStore{countFunc: func() (int, error) { return 3, nil }}}
	loginService := &mockLoginService{active: true, activeSince: time.Now()}
	scheduler := &mockScheduler{running: true}

	handler := NewStatusHandler(storage, loginService, scheduler, arbor.NewLogger())
	req := httptest.NewRequest("GET", "/api/status", nil)
	rec := httptest.NewRecorder()

	handler.GetStatusHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if int(response["cached_notes"].(float64)) != 3 {
		t.Errorf("Expected 3 cached notes, got %v", response["cached_notes"])
	}
	if response["login_active"] != true {
		t.Errorf("Expected login_active true, got %v", response["login_active"])
	}
	if response["scheduler_running"] != true {
		t.Errorf("Expected scheduler_running true, got %v", response["scheduler_running"])
	}
}

func TestGetStatusHandler_NilScheduler(t *testing.T) {
	handler := NewStatusHandler(&mockStorage{}, &mockLoginService{}, nil, arbor.NewLogger())
	req := httptest.NewRequest("GET", "/api/status", nil)
	rec := httptest.NewRecorder()

	handler.GetStatusHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&response)

	if response["scheduler_running"] != false {
		t.Errorf("Expected scheduler_running false, got %v", response["scheduler_running"])
	}
	if response["login_active"] != false {
		t.Errorf("Expected login_active false, got %v", response["login_active"])
	}
}

func TestGetStatusHandler_CountFailure(t *testing.T) {
	storage := &mockStorage{notes: &mockNoteStore{countFunc: func() (int, error) {
		return 0, context.DeadlineExceeded
	}}}

	handler := NewStatusHandler(storage, &mockLoginService{}, nil, arbor.NewLogger())
	req := httptest.NewRequest("GET", "/api/status", nil)
	rec := httptest.NewRecorder()

	handler.GetStatusHandler(rec, req)

	// A broken count must not fail the health check
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&response)
	if int(response["cached_notes"].(float64)) != 0 {
		t.Errorf("Expected 0 cached notes on count failure, got %v", response["cached_notes"])
	}
}

func TestNotFoundHandler(t *testing.T) {
	handler := NewStatusHandler(&mockStorage{}, &mockLoginService{}, nil, arbor.NewLogger())
	req := httptest.NewRequest("GET", "/api/bogus", nil)
	rec := httptest.NewRecorder()

	handler.NotFoundHandler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rec.Code)
	}

	var response map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&response)
	if response["path"] != "/api/bogus" {
		t.Errorf("Expected path echoed in response, got %v", response["path"])
	}
}
