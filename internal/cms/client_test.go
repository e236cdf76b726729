package cms

import (
	"testing"
	"time"
)

func TestJoinURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		path string
		want string
	}{
		{"clean join", "http://cms.test", "/p.html", "http://cms.test/p.html"},
		{"trailing slash on base", "http://cms.test/", "/p.html", "http://cms.test/p.html"},
		{"missing leading slash", "http://cms.test", "p.html", "http://cms.test/p.html"},
		{"both stray", "http://cms.test/", "p.html", "http://cms.test/p.html"},
		{"empty path", "http://cms.test/", "", "http://cms.test"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinURL(tt.base, tt.path); got != tt.want {
				t.Errorf("joinURL(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
			}
		})
	}
}

func TestNewHTTPClient(t *testing.T) {
	cfg := DefaultClientConfig()
	cfg.Timeout = 5 * time.Second

	client := NewHTTPClient(cfg)
	if client.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", client.Timeout)
	}
	if client.Transport == nil {
		t.Fatal("client has no transport")
	}
}

func TestDefaultClientConfig(t *testing.T) {
	cfg := DefaultClientConfig()
	if cfg.Timeout <= 0 {
		t.Error("default timeout not set")
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		t.Error("default per-host idle pool not set")
	}
}
