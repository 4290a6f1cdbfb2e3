package ids

import (
	"encoding/base64"
	"testing"
)

func TestNewLengthAndAlphabet(t *testing.T) {
	tests := []struct {
		name  string
		bytes int
		want  int
	}{
		{"public", PublicBytes, 8},
		{"secret", SecretBytes, 16},
		{"odd", 9, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.bytes)
			if len(got) != tt.want {
				t.Errorf("len(%q) = %d, want %d", got, len(got), tt.want)
			}
			raw, err := base64.RawURLEncoding.DecodeString(got)
			if err != nil {
				t.Fatalf("not base64url: %v", err)
			}
			if len(raw) != tt.bytes {
				t.Errorf("decoded %d bytes, want %d", len(raw), tt.bytes)
			}
		})
	}
}

func TestNewIsUnique(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id := Public()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q after %d draws", id, i)
		}
		seen[id] = struct{}{}
	}
}

func TestHasherVerify(t *testing.T) {
	h := NewHasher("pepper")
	secret := Secret()
	digest := h.Digest(secret)

	if digest == secret {
		t.Fatal("digest must not equal the secret")
	}
	if !h.Verify(secret, digest) {
		t.Error("Verify rejected the right secret")
	}
	if h.Verify(secret+"x", digest) {
		t.Error("Verify accepted a wrong secret")
	}
	if h.Verify("", digest) || h.Verify(secret, "") {
		t.Error("Verify accepted an empty value")
	}
	if NewHasher("other").Verify(secret, digest) {
		t.Error("digest verified under a different pepper")
	}
}

func TestHasherLongPepper(t *testing.T) {
	long := make([]byte, 100)
	for i := range long {
		long[i] = 'p'
	}
	h := NewHasher(string(long))
	if !h.Verify("s", h.Digest("s")) {
		t.Fatal("long pepper round trip failed")
	}
}
