package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	if got := AtoiDefault("42", 0); got != 42 {
		t.Errorf("AtoiDefault(42) = %d", got)
	}
	if got := AtoiDefault("", 10); got != 10 {
		t.Errorf("AtoiDefault(empty) = %d", got)
	}
	if got := AtoiDefault("x", 5); got != 5 {
		t.Errorf("AtoiDefault(x) = %d", got)
	}
}

func TestParseInt64(t *testing.T) {
	if n, ok := ParseInt64("-1001234567890"); !ok || n != -1001234567890 {
		t.Errorf("ParseInt64 = (%d, %v)", n, ok)
	}
	if _, ok := ParseInt64("nope"); ok {
		t.Error("ParseInt64(nope) must fail")
	}
	if _, ok := ParseInt64(""); ok {
		t.Error("ParseInt64(empty) must fail")
	}
}
