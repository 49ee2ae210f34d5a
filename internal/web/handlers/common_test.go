package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthCheck(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	wantStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body map[string]string
	decodeBody(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, http.StatusTeapot, "something broke")

	wantStatus(t, rec, http.StatusTeapot)
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["error"] != "something broke" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestParseDay(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"2026-03-16", true},
		{"2026-3-16", false},
		{"16-03-2026", false},
		{"not a date", false},
		{"", false},
	}

	for _, tt := range tests {
		day, ok := parseDay(tt.input)
		if ok != tt.ok {
			t.Errorf("parseDay(%q) ok = %v, want %v", tt.input, ok, tt.ok)
		}
		if tt.ok && day.Format("2006-01-02") != tt.input {
			t.Errorf("parseDay(%q) = %v", tt.input, day)
		}
	}
}

func TestSanitizeForLog(t *testing.T) {
	got := sanitizeForLog("S001\nfake log line\rinjected")
	if got != "S001fake log lineinjected" {
		t.Errorf("sanitizeForLog() = %q", got)
	}
}
