package rtc

import "testing"

func TestConfigFromURLs(t *testing.T) {
	cfg := ConfigFromURLs([]string{"stun:a.example:3478", " turn:b.example ", "http://nope", ""})
	if len(cfg.ICEServers) != 2 {
		t.Fatalf("got %d servers, want 2", len(cfg.ICEServers))
	}
	if cfg.ICEServers[1].URLs[0] != "turn:b.example" {
		t.Fatalf("url not trimmed: %q", cfg.ICEServers[1].URLs[0])
	}
}

func TestConfigFromURLsFallsBack(t *testing.T) {
	cfg := ConfigFromURLs(nil)
	if len(cfg.ICEServers) != 1 || cfg.ICEServers[0].URLs[0] != DefaultSTUN {
		t.Fatalf("unexpected default %+v", cfg.ICEServers)
	}
}
