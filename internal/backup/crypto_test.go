package backup

import (
	"bytes"
	"errors"
	"testing"
)

func TestGenerateSalt(t *testing.T) {
	salt1, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}
	if len(salt1) != saltSize {
		t.Errorf("salt length = %d, want %d", len(salt1), saltSize)
	}

	salt2, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt 2: %v", err)
	}
	if bytes.Equal(salt1, salt2) {
		t.Error("two salts should not be equal")
	}
}

func TestDeriveKey(t *testing.T) {
	salt := []byte("1234567890abcdef")

	key1 := DeriveKey("correct horse battery", salt)
	key2 := DeriveKey("correct horse battery", salt)
	if !bytes.Equal(key1, key2) {
		t.Error("same passphrase+salt should produce same key")
	}
	if len(key1) != keySize {
		t.Errorf("key length = %d, want %d", len(key1), keySize)
	}

	if bytes.Equal(key1, DeriveKey("another passphrase", salt)) {
		t.Error("different passphrases should produce different keys")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	original := []byte("SQLite format 3\x00 with some activity rows")

	sealed, err := Encrypt(original, "family-passphrase")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if !bytes.HasPrefix(sealed, magic) {
		t.Error("archive should start with magic header")
	}
	if bytes.Contains(sealed, original) {
		t.Error("archive should not contain plaintext")
	}

	got, err := Decrypt(sealed, "family-passphrase")
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("decrypted = %q, want %q", got, original)
	}

	again, err := Encrypt(original, "family-passphrase")
	if err != nil {
		t.Fatalf("encrypt again: %v", err)
	}
	if bytes.Equal(sealed, again) {
		t.Error("two encryptions should differ by salt and nonce")
	}
}

func TestDecryptFailures(t *testing.T) {
	sealed, err := Encrypt([]byte("database bytes"), "family-passphrase")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	tampered := bytes.Clone(sealed)
	tampered[len(tampered)-1] ^= 0xff

	wrongMagic := bytes.Clone(sealed)
	wrongMagic[0] = 'X'

	tests := []struct {
		name       string
		data       []byte
		passphrase string
		want       error
	}{
		{"wrong passphrase", sealed, "not the passphrase", ErrDecrypt},
		{"tampered ciphertext", tampered, "family-passphrase", ErrDecrypt},
		{"wrong magic", wrongMagic, "family-passphrase", ErrNotArchive},
		{"too small", []byte("FPB1short"), "family-passphrase", ErrNotArchive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decrypt(tt.data, tt.passphrase)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEncryptEmpty(t *testing.T) {
	sealed, err := Encrypt(nil, "family-passphrase")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	got, err := Decrypt(sealed, "family-passphrase")
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("decrypted length = %d, want 0", len(got))
	}
}
