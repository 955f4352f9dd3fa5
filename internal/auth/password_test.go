package auth

import "testing"

// TestPasswordEncoder_HashAndMatches はハッシュの照合を検証する。
func TestPasswordEncoder_HashAndMatches(t *testing.T) {
	encoder := NewPasswordEncoder()

	hash, err := encoder.Hash("secret-password")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if hash == "secret-password" {
		t.Fatal("expected hash to differ from plaintext")
	}

	if !encoder.Matches("secret-password", hash) {
		t.Error("expected correct password to match")
	}
	if encoder.Matches("wrong-password", hash) {
		t.Error("expected wrong password not to match")
	}
}

// TestPasswordEncoder_HashIsSalted は同じパスワードでもハッシュが毎回異なることを検証する。
func TestPasswordEncoder_HashIsSalted(t *testing.T) {
	encoder := NewPasswordEncoder()

	hash1, err := encoder.Hash("secret-password")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	hash2, err := encoder.Hash("secret-password")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if hash1 == hash2 {
		t.Error("expected salted hashes to differ")
	}
}
