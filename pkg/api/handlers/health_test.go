package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp
}

func healthyCheck(context.Context) error { return nil }

func TestLiveness_ReturnsOK(t *testing.T) {
	handler := NewHealthHandler()
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	handler.Liveness(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	resp := decode(t, w)
	if resp.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", resp.Status)
	}

	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("Expected Data to be a map, got %T", resp.Data)
	}
	if data["service"] != "imgsync" {
		t.Errorf("Expected service 'imgsync', got '%v'", data["service"])
	}
}

func TestReadiness_NoStores_Returns503(t *testing.T) {
	handler := NewHealthHandler()
	req := httptest.NewRequest("GET", "/health/ready", nil)
	w := httptest.NewRecorder()

	handler.Readiness(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}

	resp := decode(t, w)
	if resp.Error != "no stores configured" {
		t.Errorf("Expected error 'no stores configured', got '%s'", resp.Error)
	}
}

func TestReadiness_WithStores_ReturnsOK(t *testing.T) {
	handler := NewHealthHandler(
		StoreCheck{Name: "postgres", Type: "references", Check: healthyCheck},
		StoreCheck{Name: "my-bucket", Type: "storage", Check: healthyCheck},
	)
	req := httptest.NewRequest("GET", "/health/ready", nil)
	w := httptest.NewRecorder()

	handler.Readiness(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	data, ok := decode(t, w).Data.(map[string]any)
	if !ok {
		t.Fatalf("Expected Data to be a map")
	}
	if data["stores"].(float64) != 2 {
		t.Errorf("Expected 2 stores, got %v", data["stores"])
	}
	if data["object_stores"].(float64) != 1 {
		t.Errorf("Expected 1 object store, got %v", data["object_stores"])
	}
}

func TestStores_AllHealthy_ReturnsOK(t *testing.T) {
	handler := NewHealthHandler(
		StoreCheck{Name: "sqlite", Type: "references", Check: healthyCheck},
		StoreCheck{Name: "my-bucket", Type: "storage", Check: healthyCheck},
	)
	req := httptest.NewRequest("GET", "/health/stores", nil)
	w := httptest.NewRecorder()

	handler.Stores(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if resp := decode(t, w); resp.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", resp.Status)
	}
}

func TestStores_Unhealthy_Returns503(t *testing.T) {
	handler := NewHealthHandler(
		StoreCheck{Name: "sqlite", Type: "references", Check: healthyCheck},
		StoreCheck{Name: "my-bucket", Type: "storage", Check: func(context.Context) error {
			return errors.New("access denied")
		}},
	)
	req := httptest.NewRequest("GET", "/health/stores", nil)
	w := httptest.NewRecorder()

	handler.Stores(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}

	resp := decode(t, w)
	if resp.Status != "unhealthy" {
		t.Errorf("Expected status 'unhealthy', got '%s'", resp.Status)
	}

	data := resp.Data.(map[string]any)
	stores := data["stores"].([]any)
	if len(stores) != 2 {
		t.Fatalf("Expected 2 store entries, got %d", len(stores))
	}
	bucket := stores[1].(map[string]any)
	if bucket["status"] != "unhealthy" || bucket["error"] != "access denied" {
		t.Errorf("Unexpected bucket health: %v", bucket)
	}
}
