package logger

import (
	"strings"
	"testing"
)

func TestSecurityLogger_MaskCredential(t *testing.T) {
	sl := NewSecurityLogger(Nop())

	if got := sl.MaskCredential(""); got != "unset" {
		t.Errorf("Expected 'unset' for empty secret, got %s", got)
	}

	masked := sl.MaskCredential("pplx-abcdef123456")
	if !strings.HasPrefix(masked, "cred#") || len(masked) != len("cred#")+8 {
		t.Errorf("Unexpected mask format: %s", masked)
	}
	if masked != sl.MaskCredential("pplx-abcdef123456") {
		t.Error("Expected masking to be stable for the same secret")
	}
}

func TestSecurityLogger_MaskAPIEndpoint(t *testing.T) {
	sl := NewSecurityLogger(Nop())

	masked := sl.MaskAPIEndpoint("https://api.dataforseo.com/v3/serp/google/organic/live/advanced")
	if !strings.HasPrefix(masked, "api.dataforseo.com/api#") {
		t.Errorf("Expected host to be kept, got %s", masked)
	}
	if strings.Contains(masked, "organic") {
		t.Errorf("Expected path to be hidden, got %s", masked)
	}
}

func TestSecurityLogger_MaskSensitiveData(t *testing.T) {
	sl := NewSecurityLogger(Nop())

	masked := sl.MaskSensitiveData(map[string]interface{}{
		"dataforseo_password": "hunter2",
		"dataforseo_login":    "me@example.com",
		"endpoint_url":        "https://api.perplexity.ai/chat/completions",
		"seed_keywords":       []string{"a", "b", "c", "d"},
		"workers":             4,
	})

	if masked["dataforseo_password"] == "hunter2" {
		t.Error("Expected password to be masked")
	}
	if masked["dataforseo_login"] == "me@example.com" {
		t.Error("Expected login to be masked")
	}
	if !strings.HasPrefix(masked["endpoint_url"].(string), "api.perplexity.ai/api#") {
		t.Errorf("Unexpected endpoint mask: %v", masked["endpoint_url"])
	}
	if masked["seed_keywords"] != "keywords_count=4,sample=[a,b,...]" {
		t.Errorf("Unexpected keyword mask: %v", masked["seed_keywords"])
	}
	if masked["workers"] != 4 {
		t.Errorf("Expected non-sensitive value to pass through, got %v", masked["workers"])
	}
}

func TestSecurityLogger_MaskLogMessage(t *testing.T) {
	sl := NewSecurityLogger(Nop())

	msg := sl.MaskLogMessage("calling https://api.example.com/x?token=abc with pplx-SECRET123 and password=hunter2")
	for _, leaked := range []string{"token=abc", "pplx-SECRET123", "hunter2", "/x?"} {
		if strings.Contains(msg, leaked) {
			t.Errorf("Expected %q to be masked in %q", leaked, msg)
		}
	}
}
