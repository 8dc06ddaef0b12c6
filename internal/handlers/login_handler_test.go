package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rednote/internal/interfaces"
	"github.com/ternarybob/rednote/internal/services/login"
	"github.com/ternarybob/rednote/pkg/models"
)

// mockLoginService implements interfaces.LoginService for testing
type mockLoginService struct {
	openFunc    func(ctx context.Context, url string) (*interfaces.Screenshot, error)
	pollFunc    func(ctx context.Context, timeout time.Duration) (*models.LoginStatus, error)
	closeFunc   func() error
	activeSince time.Time
	active      bool
	closeCalls  int
}

func (m *mockLoginService) Open(ctx context.Context, url string) (*interfaces.Screenshot, error) {
	if m.openFunc != nil {
		return m.openFunc(ctx, url)
	}
	return &interfaces.Screenshot{Data: []byte("\x89PNG\r\n\x1a\nfake"), MediaType: "image/png"}, nil
}

func (m *mockLoginService) Poll(ctx context.Context, timeout time.Duration) (*models.LoginStatus, error) {
	if m.pollFunc != nil {
		return m.pollFunc(ctx, timeout)
	}
	return nil, login.ErrNoLoginSession
}

func (m *mockLoginService) Close() error {
	m.closeCalls++
	if m.closeFunc != nil {
		return m.closeFunc()
	}
	return nil
}

func (m *mockLoginService) ActiveSince() (time.Time, bool) {
	return m.activeSince, m.active
}

func TestQRImageHandler_Success(t *testing.T) {
	var capturedURL string
	mockService := &mockLoginService{
		openFunc: func(ctx context.Context, url string) (*interfaces.Screenshot, error) {
			capturedURL = url
			return &interfaces.Screenshot{Data: []byte("\x89PNG\r\n\x1a\nfake"), MediaType: "image/png"}, nil
		},
	}

	handler := NewLoginHandler(mockService, arbor.NewLogger())
	req := httptest.NewRequest("GET", "/api/login/qr", nil)
	rec := httptest.NewRecorder()

	handler.QRImageHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png content type, got %q", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("Expected screenshot bytes in response body")
	}
	// Empty url goes to the service, which applies its configured default
	if capturedURL != "" {
		t.Errorf("Expected empty url passed through, got %q", capturedURL)
	}
}

func TestQRImageHandler_CustomURL(t *testing.T) {
	var capturedURL string
	mockService := &mockLoginService{
		openFunc: func(ctx context.Context, url string) (*interfaces.Screenshot, error) {
			capturedURL = url
			return &interfaces.Screenshot{Data: []byte("fake"), MediaType: "image/jpeg"}, nil
		},
	}

	handler := NewLoginHandler(mockService, arbor.NewLogger())
	req := httptest.NewRequest("GET", "/api/login/qr?url=https://www.xiaohongshu.com/login", nil)
	rec := httptest.NewRecorder()

	handler.QRImageHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if capturedURL != "https://www.xiaohongshu.com/login" {
		t.Errorf("Expected custom url to reach the service, got %q", capturedURL)
	}
}

func TestQRImageHandler_OpenError(t *testing.T) {
	mockService := &mockLoginService{
		openFunc: func(ctx context.Context, url string) (*interfaces.Screenshot, error) {
			return nil, errors.New("create login browser: chrome not found")
		},
	}

	handler := NewLoginHandler(mockService, arbor.NewLogger())
	req := httptest.NewRequest("GET", "/api/login/qr", nil)
	rec := httptest.NewRecorder()

	handler.QRImageHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Expected JSON error response: %v", err)
	}
	if response["status"] != "error" {
		t.Errorf("Expected status 'error', got %v", response["status"])
	}
}

func TestWaitHandler_Success(t *testing.T) {
	var capturedTimeout time.Duration
	mockService := &mockLoginService{
		pollFunc: func(ctx context.Context, timeout time.Duration) (*models.LoginStatus, error) {
			capturedTimeout = timeout
			return &models.LoginStatus{Status: models.LoginSuccess, CookiesCount: 12}, nil
		},
	}

	handler := NewLoginHandler(mockService, arbor.NewLogger())
	req := httptest.NewRequest("GET", "/api/login/wait", nil)
	rec := httptest.NewRecorder()

	handler.WaitHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if capturedTimeout != 120*time.Second {
		t.Errorf("Expected default 120s timeout, got %v", capturedTimeout)
	}

	var status models.LoginStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if status.Status != models.LoginSuccess {
		t.Errorf("Expected success status, got %v", status.Status)
	}
	if status.CookiesCount != 12 {
		t.Errorf("Expected 12 cookies, got %d", status.CookiesCount)
	}
}

func TestWaitHandler_CustomTimeout(t *testing.T) {
	var capturedTimeout time.Duration
	mockService := &mockLoginService{
		pollFunc: func(ctx context.Context, timeout time.Duration) (*models.LoginStatus, error) {
			capturedTimeout = timeout
			return &models.LoginStatus{Status: models.LoginWaiting, Timeout: 5}, nil
		},
	}

	handler := NewLoginHandler(mockService, arbor.NewLogger())
	req := httptest.NewRequest("GET", "/api/login/wait?timeout=5", nil)
	rec := httptest.NewRecorder()

	handler.WaitHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if capturedTimeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %v", capturedTimeout)
	}

	var status models.LoginStatus
	json.NewDecoder(rec.Body).Decode(&status)
	if status.Status != models.LoginWaiting {
		t.Errorf("Expected waiting status, got %v", status.Status)
	}
}

func TestWaitHandler_CapsTimeout(t *testing.T) {
	var capturedTimeout time.Duration
	mockService := &mockLoginService{
		pollFunc: func(ctx context.Context, timeout time.Duration) (*models.LoginStatus, error) {
			capturedTimeout = timeout
			return &models.LoginStatus{Status: models.LoginWaiting}, nil
		},
	}

	handler := NewLoginHandler(mockService, arbor.NewLogger())
	req := httptest.NewRequest("GET", "/api/login/wait?timeout=900", nil)
	rec := httptest.NewRecorder()

	handler.WaitHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if capturedTimeout != maxWaitTimeout {
		t.Errorf("Expected timeout capped at %v, got %v", maxWaitTimeout, capturedTimeout)
	}
}

func TestWaitHandler_InvalidTimeout(t *testing.T) {
	handler := NewLoginHandler(&mockLoginService{}, arbor.NewLogger())
	req := httptest.NewRequest("GET", "/api/login/wait?timeout=soon", nil)
	rec := httptest.NewRecorder()

	handler.WaitHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestWaitHandler_NoSession(t *testing.T) {
	handler := NewLoginHandler(&mockLoginService{}, arbor.NewLogger())
	req := httptest.NewRequest("GET", "/api/login/wait", nil)
	rec := httptest.NewRecorder()

	handler.WaitHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}

	var response map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&response)
	if response["status"] != "error" {
		t.Errorf("Expected status 'error', got %v", response["status"])
	}
}

func TestWaitHandler_PollError(t *testing.T) {
	mockService := &mockLoginService{
		pollFunc: func(ctx context.Context, timeout time.Duration) (*models.LoginStatus, error) {
			return nil, errors.New("browser crashed")
		},
	}

	handler := NewLoginHandler(mockService, arbor.NewLogger())
	req := httptest.NewRequest("GET", "/api/login/wait", nil)
	rec := httptest.NewRecorder()

	handler.WaitHandler(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rec.Code)
	}
}

func TestCloseHandler(t *testing.T) {
	mockService := &mockLoginService{}

	handler := NewLoginHandler(mockService, arbor.NewLogger())
	req := httptest.NewRequest("POST", "/api/login/close", nil)
	rec := httptest.NewRecorder()

	handler.CloseHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if mockService.closeCalls != 1 {
		t.Errorf("Expected one close call, got %d", mockService.closeCalls)
	}

	var response map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&response)
	if response["status"] != "success" {
		t.Errorf("Expected status 'success', got %v", response["status"])
	}
}

func TestCloseHandler_Error(t *testing.T) {
	mockService := &mockLoginService{
		closeFunc: func() error { return errors.New("close failed") },
	}

	handler := NewLoginHandler(mockService, arbor.NewLogger())
	req := httptest.NewRequest("POST", "/api/login/close", nil)
	rec := httptest.NewRecorder()

	handler.CloseHandler(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rec.Code)
	}
}
