package crypt

import "testing"

func TestDeriveKeyIsDeterministic(t *testing.T) {
	a := DeriveKey("shared-secret")
	b := DeriveKey("shared-secret")
	if len(a) != 32 {
		t.Fatalf("key length = %d, want 32", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("DeriveKey not deterministic at byte %d", i)
		}
	}
}

func TestDeriveKeyDiffersBySecret(t *testing.T) {
	a := DeriveKey("secret-one")
	b := DeriveKey("secret-two")
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("expected different keys for different secrets")
	}
}

func TestSelectFallsBackToAESForUnknownMethod(t *testing.T) {
	key := DeriveKey("secret")
	block, name := Select("not-a-real-cipher", key)
	if name != "aes" {
		t.Fatalf("effective cipher name = %q, want aes", name)
	}
	if block == nil {
		t.Fatalf("expected a non-nil BlockCrypt")
	}
}

func TestSelectKnownCipher(t *testing.T) {
	key := DeriveKey("secret")
	block, name := Select("aes-128", key)
	if name != "aes-128" {
		t.Fatalf("effective cipher name = %q, want aes-128", name)
	}
	if block == nil {
		t.Fatalf("expected a non-nil BlockCrypt")
	}
}
