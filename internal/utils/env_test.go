package utils

import "testing"

func TestSafeEnv(t *testing.T) {
	const key = "_NUVIO_TEST_SAFEENV"
	t.Setenv(key, "")
	if got := SafeEnv(key, "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv(key, "  value ")
	if got := SafeEnv(key, "fallback"); got != "value" {
		t.Fatalf("expected 'value', got %q", got)
	}
}

func TestSafeEnvList(t *testing.T) {
	const key = "_NUVIO_TEST_SAFEENVLIST"
	t.Setenv(key, " https://a.example.com, ,https://b.example.com ")
	got := SafeEnvList(key, nil)
	if len(got) != 2 || got[0] != "https://a.example.com" || got[1] != "https://b.example.com" {
		t.Fatalf("unexpected list %v", got)
	}
	t.Setenv(key, " , ")
	if got := SafeEnvList(key, []string{"*"}); len(got) != 1 || got[0] != "*" {
		t.Fatalf("expected fallback, got %v", got)
	}
}
