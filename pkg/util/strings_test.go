package util

import "testing"

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault("42", 0); got != 42 {
		t.Fatalf("got %d", got)
	}
	if got := ParseIntDefault("", 7); got != 7 {
		t.Fatalf("got %d", got)
	}
	if got := ParseIntDefault("x", 7); got != 7 {
		t.Fatalf("got %d", got)
	}
}

func TestParseFloatDefault(t *testing.T) {
	if got := ParseFloatDefault("4.5", 0); got != 4.5 {
		t.Fatalf("got %f", got)
	}
	if got := ParseFloatDefault("bad", 1.5); got != 1.5 {
		t.Fatalf("got %f", got)
	}
}

func TestParseBoolFlag(t *testing.T) {
	if got := ParseBoolFlag("1", 0); got != 1 {
		t.Fatalf("got %d", got)
	}
	if got := ParseBoolFlag("false", 1); got != 0 {
		t.Fatalf("got %d", got)
	}
	if got := ParseBoolFlag("maybe", 1); got != 1 {
		t.Fatalf("got %d", got)
	}
}
