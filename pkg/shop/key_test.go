package shop

import (
	"strings"
	"testing"
)

func TestGenerateConfirmationKey(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key := GenerateConfirmationKey()
		if len(key) != 8 {
			t.Fatalf("key %q should be 8 characters", key)
		}
		for _, c := range key {
			if !strings.ContainsRune(keyAlphabet, c) {
				t.Fatalf("key %q contains %q, outside the uppercase alphanumeric alphabet", key, c)
			}
		}
		seen[key] = true
	}

	// Keys are random, not a constant. (Uniqueness across orders is
	// deliberately not guaranteed.)
	if len(seen) < 2 {
		t.Fatal("expected varied keys across generations")
	}
}
