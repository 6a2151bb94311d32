package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubDBHealth struct {
	err error
}

func (s *stubDBHealth) Health() error { return s.err }

type stubRedisHealth struct {
	err error
}

func (s *stubRedisHealth) Health(ctx context.Context) error { return s.err }

func healthyKafkaCheck(brokers []string) error   { return nil }
func unhealthyKafkaCheck(brokers []string) error { return fmt.Errorf("broker unreachable") }

func TestHealthHandler_AllHealthy(t *testing.T) {
	handler := NewHealthHandler(&stubDBHealth{}, &stubRedisHealth{}, []string{"localhost:9092"}, healthyKafkaCheck)

	rr := httptest.NewRecorder()
	handler.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "healthy" {
		t.Fatalf("expected healthy status, got %q", resp.Status)
	}
	for _, name := range []string{"database", "redis", "kafka"} {
		if resp.Services[name] != "healthy" {
			t.Fatalf("expected %s healthy, got %q", name, resp.Services[name])
		}
	}
}

func TestHealthHandler_DatabaseDown(t *testing.T) {
	handler := NewHealthHandler(&stubDBHealth{err: fmt.Errorf("connection refused")}, &stubRedisHealth{}, nil, healthyKafkaCheck)

	rr := httptest.NewRecorder()
	handler.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "unhealthy" {
		t.Fatalf("expected unhealthy status, got %q", resp.Status)
	}
}

func TestHealthHandler_KafkaDown(t *testing.T) {
	handler := NewHealthHandler(&stubDBHealth{}, &stubRedisHealth{}, []string{"localhost:9092"}, unhealthyKafkaCheck)

	rr := httptest.NewRecorder()
	handler.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	handler := NewHealthHandler(&stubDBHealth{}, &stubRedisHealth{}, nil, healthyKafkaCheck)

	rr := httptest.NewRecorder()
	handler.Readiness(rr, httptest.NewRequest(http.MethodGet, "/health/readiness", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	handler = NewHealthHandler(&stubDBHealth{}, &stubRedisHealth{err: fmt.Errorf("timeout")}, nil, healthyKafkaCheck)
	rr = httptest.NewRecorder()
	handler.Readiness(rr, httptest.NewRequest(http.MethodGet, "/health/readiness", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestHealthHandler_Liveness(t *testing.T) {
	handler := NewHealthHandler(&stubDBHealth{}, &stubRedisHealth{}, nil, healthyKafkaCheck)

	rr := httptest.NewRecorder()
	handler.Liveness(rr, httptest.NewRequest(http.MethodGet, "/health/liveness", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["status"] != "alive" {
		t.Fatalf("expected alive, got %q", resp["status"])
	}
}

func TestCheckKafkaHealth_NoBrokers(t *testing.T) {
	if err := CheckKafkaHealth(nil); err == nil {
		t.Fatalf("expected error for empty broker list")
	}
}
