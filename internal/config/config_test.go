package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Model.TimeoutSeconds != 30 {
		t.Errorf("Model.TimeoutSeconds = %d, want 30", cfg.Model.TimeoutSeconds)
	}
	if cfg.Model.EmbeddingDim != 128 {
		t.Errorf("Model.EmbeddingDim = %d, want 128", cfg.Model.EmbeddingDim)
	}
	if cfg.Model.InputSize != 160 {
		t.Errorf("Model.InputSize = %d, want 160", cfg.Model.InputSize)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("Database.MaxOpenConns = %d, want 25", cfg.Database.MaxOpenConns)
	}
	if cfg.Recognition.Concurrency != 5 {
		t.Errorf("Recognition.Concurrency = %d, want 5", cfg.Recognition.Concurrency)
	}
	if cfg.Recognition.Matcher != "linear" {
		t.Errorf("Recognition.Matcher = %q, want linear", cfg.Recognition.Matcher)
	}
	if cfg.Uploads.Dir != "uploads" {
		t.Errorf("Uploads.Dir = %q, want uploads", cfg.Uploads.Dir)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MODEL_URL", "http://model:9000")
	t.Setenv("BATCH_CONCURRENCY", "12")
	t.Setenv("ACCEPT_THRESHOLD", "0.75")
	t.Setenv("MATCHER_BACKEND", "hnsw")

	cfg := Load()

	if cfg.Model.URL != "http://model:9000" {
		t.Errorf("Model.URL = %q", cfg.Model.URL)
	}
	if cfg.Recognition.Concurrency != 12 {
		t.Errorf("Recognition.Concurrency = %d, want 12", cfg.Recognition.Concurrency)
	}
	if cfg.Recognition.AcceptThreshold != 0.75 {
		t.Errorf("Recognition.AcceptThreshold = %v, want 0.75", cfg.Recognition.AcceptThreshold)
	}
	if cfg.Recognition.Matcher != "hnsw" {
		t.Errorf("Recognition.Matcher = %q, want hnsw", cfg.Recognition.Matcher)
	}
}

func TestLoadInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("BATCH_CONCURRENCY", "not a number")
	t.Setenv("ACCEPT_THRESHOLD", "1.5") // out of (0,1]
	t.Setenv("MODEL_TIMEOUT_SECONDS", "-3")

	cfg := Load()

	if cfg.Recognition.Concurrency != 5 {
		t.Errorf("Recognition.Concurrency = %d, want default 5", cfg.Recognition.Concurrency)
	}
	defaultAccept := cfg.Thresholds.Profiles["default"].AcceptThreshold
	if cfg.Recognition.AcceptThreshold != defaultAccept {
		t.Errorf("Recognition.AcceptThreshold = %v, want profile default %v",
			cfg.Recognition.AcceptThreshold, defaultAccept)
	}
	if cfg.Model.TimeoutSeconds != 30 {
		t.Errorf("Model.TimeoutSeconds = %d, want default 30", cfg.Model.TimeoutSeconds)
	}
}

func TestEmbeddedProfiles(t *testing.T) {
	cfg := Load()

	for _, name := range []string{"default", "crowded", "enrollment"} {
		p, ok := cfg.Thresholds.Profiles[name]
		if !ok {
			t.Errorf("profile %q missing from embedded thresholds", name)
			continue
		}
		if p.IoUThreshold <= 0 || p.IoUThreshold > 1 {
			t.Errorf("profile %q iou_threshold = %v, out of (0,1]", name, p.IoUThreshold)
		}
		if p.MinConfidence <= 0 || p.MinConfidence > 1 {
			t.Errorf("profile %q min_confidence = %v, out of (0,1]", name, p.MinConfidence)
		}
		if p.AcceptThreshold <= 0 || p.AcceptThreshold > 1 {
			t.Errorf("profile %q accept_threshold = %v, out of (0,1]", name, p.AcceptThreshold)
		}
	}
}

func TestProfileSelection(t *testing.T) {
	t.Setenv("FACEMARK_PROFILE", "crowded")

	cfg := Load()
	if cfg.Recognition.Profile != "crowded" {
		t.Errorf("Recognition.Profile = %q, want crowded", cfg.Recognition.Profile)
	}
	want := cfg.Thresholds.Profiles["crowded"]
	if cfg.Recognition.AcceptThreshold != want.AcceptThreshold {
		t.Errorf("AcceptThreshold = %v, want crowded profile value %v",
			cfg.Recognition.AcceptThreshold, want.AcceptThreshold)
	}
}

func TestUnknownProfileFallsBackToDefault(t *testing.T) {
	t.Setenv("FACEMARK_PROFILE", "no-such-profile")

	cfg := Load()
	want := cfg.Thresholds.Profiles["default"]
	if cfg.Recognition.AcceptThreshold != want.AcceptThreshold {
		t.Errorf("AcceptThreshold = %v, want default profile value %v",
			cfg.Recognition.AcceptThreshold, want.AcceptThreshold)
	}
}

func TestGetProfile(t *testing.T) {
	cfg := Load()

	enrollment := cfg.GetProfile("enrollment")
	if enrollment.MinConfidence < cfg.GetProfile("default").MinConfidence {
		t.Error("enrollment profile should be at least as strict as the default")
	}

	fallback := cfg.GetProfile("missing")
	if fallback != cfg.Thresholds.Profiles["default"] {
		t.Errorf("GetProfile(missing) = %+v, want the default profile", fallback)
	}
}
