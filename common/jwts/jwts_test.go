package jwts

import "testing"

func TestTokenRoundTrip(t *testing.T) {
	token, err := GetToken("user_42", "secret", 60)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	userID, err := ParseToken(token, "secret")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if userID != "user_42" {
		t.Fatalf("userID expected user_42, got %s", userID)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := GetToken("user_42", "secret", 60)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := ParseToken(token, "other"); err == nil {
		t.Fatalf("wrong secret should fail")
	}
}

func TestTokenExpired(t *testing.T) {
	token, err := GetToken("user_42", "secret", -60)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := ParseToken(token, "secret"); err == nil {
		t.Fatalf("expired token should fail")
	}
}
