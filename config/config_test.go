package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "PARTNER_API_BASE_URL", "FALLBACK_AVATAR_URLS", "HTTP_CLIENT_TIMEOUT", "ONBOARDING_VIDEO_FLAGS", "MONGO_URI", "MONGODB_URI"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.PartnerAPIBaseURL != defaultPartnerAPIBaseURL {
		t.Errorf("PartnerAPIBaseURL = %q", cfg.PartnerAPIBaseURL)
	}
	if len(cfg.FallbackAvatars) != 4 {
		t.Errorf("FallbackAvatars has %d entries, want 4", len(cfg.FallbackAvatars))
	}
	if cfg.HTTPClientTimeout != 30*time.Second {
		t.Errorf("HTTPClientTimeout = %s", cfg.HTTPClientTimeout)
	}
	if cfg.OnboardingVideoFlags {
		t.Error("OnboardingVideoFlags should default to false")
	}
	if cfg.IsDevelopment() {
		t.Error("default env should not be development")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PARTNER_API_BASE_URL", "http://partners.local/")
	t.Setenv("HTTP_CLIENT_TIMEOUT", "5")
	t.Setenv("FALLBACK_AVATAR_URLS", " http://a , ,http://b")
	t.Setenv("ONBOARDING_VIDEO_FLAGS", "true")
	t.Setenv("ENV", "development")
	t.Setenv("MONGO_URI", "")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")

	cfg := Load()

	if cfg.PartnerAPIBaseURL != "http://partners.local" {
		t.Errorf("trailing slash not trimmed: %q", cfg.PartnerAPIBaseURL)
	}
	if cfg.HTTPClientTimeout != 5*time.Second {
		t.Errorf("HTTPClientTimeout = %s, want 5s", cfg.HTTPClientTimeout)
	}
	if len(cfg.FallbackAvatars) != 2 || cfg.FallbackAvatars[1] != "http://b" {
		t.Errorf("FallbackAvatars = %v", cfg.FallbackAvatars)
	}
	if !cfg.OnboardingVideoFlags {
		t.Error("OnboardingVideoFlags should be true")
	}
	if !cfg.IsDevelopment() {
		t.Error("expected development env")
	}
	if cfg.MongoURI != "mongodb://localhost:27017" {
		t.Errorf("MONGODB_URI fallback not applied: %q", cfg.MongoURI)
	}
}
