package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

var testSecret = []byte("test-secret-key-for-testing")

func TestSessionTokenRoundTrip(t *testing.T) {
	session := Session{
		UserID:      "user-1",
		ProjectID:   uuid.New(),
		ProjectRole: RoleAdmin,
	}

	token, exp, err := GenerateSessionToken(session, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateSessionToken failed: %v", err)
	}
	if exp <= time.Now().Unix() {
		t.Errorf("Expected future expiration, got %d", exp)
	}

	parsed, err := ParseSessionToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseSessionToken failed: %v", err)
	}

	if parsed.UserID != session.UserID {
		t.Errorf("Expected user %q, got %q", session.UserID, parsed.UserID)
	}
	if parsed.ProjectID != session.ProjectID {
		t.Errorf("Expected project %v, got %v", session.ProjectID, parsed.ProjectID)
	}
	if parsed.ProjectRole != RoleAdmin {
		t.Errorf("Expected role ADMIN, got %v", parsed.ProjectRole)
	}
}

func TestParseSessionToken_WrongSecret(t *testing.T) {
	session := Session{UserID: "user-1", ProjectID: uuid.New(), ProjectRole: RoleViewer}

	token, _, err := GenerateSessionToken(session, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateSessionToken failed: %v", err)
	}

	if _, err := ParseSessionToken(token, []byte("different-secret")); err == nil {
		t.Error("Expected error for wrong secret")
	}
}

func TestParseSessionToken_Expired(t *testing.T) {
	session := Session{UserID: "user-1", ProjectID: uuid.New(), ProjectRole: RoleViewer}

	token, _, err := GenerateSessionToken(session, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateSessionToken failed: %v", err)
	}

	if _, err := ParseSessionToken(token, testSecret); err == nil {
		t.Error("Expected error for expired token")
	}
}

func TestParseSessionToken_Garbage(t *testing.T) {
	if _, err := ParseSessionToken("not-a-jwt", testSecret); err == nil {
		t.Error("Expected error for malformed token")
	}
}
