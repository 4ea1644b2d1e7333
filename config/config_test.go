package config

import (
	"testing"
	"time"
)

func TestGCPConfigValidate(t *testing.T) {
	if err := (GCPConfig{}).Validate(); err == nil {
		t.Fatalf("expected error for empty project id")
	}
	if err := (GCPConfig{ProjectID: "proj"}).Validate(); err == nil {
		t.Fatalf("expected error for missing service account key")
	}
	if err := (GCPConfig{ProjectID: "proj", ServiceAccountKey: "{}"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVertexConfigValidate(t *testing.T) {
	if err := (VertexConfig{Location: "global", Timeout: 30 * time.Second}).Validate(); err == nil {
		t.Fatalf("expected error for missing engine id")
	}
	if err := (VertexConfig{EngineID: "engine-1"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTelemetryConfigValidate(t *testing.T) {
	if err := (TelemetryConfig{Enabled: true}).Validate(); err == nil {
		t.Fatalf("expected error for enabled telemetry without port")
	}
	if err := (TelemetryConfig{Enabled: true, MetricsPort: 9090}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (TelemetryConfig{}).Validate(); err != nil {
		t.Fatalf("disabled telemetry should not require a port: %v", err)
	}
}

func TestGeminiResolveModel(t *testing.T) {
	cfg := GeminiConfig{
		Model:         "gemini-2.0-flash",
		AllowedModels: []string{"gemini-2.0-flash", "gemini-2.5-flash"},
	}
	if got := cfg.ResolveModel(""); got != "gemini-2.0-flash" {
		t.Fatalf("empty request should resolve to default, got %q", got)
	}
	if got := cfg.ResolveModel("gemini-2.5-flash"); got != "gemini-2.5-flash" {
		t.Fatalf("allowed model should pass through, got %q", got)
	}
	if got := cfg.ResolveModel("gpt-4"); got != "gemini-2.0-flash" {
		t.Fatalf("unlisted model should fall back to default, got %q", got)
	}
}
