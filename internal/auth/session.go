package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Session is the authenticated user context carried by a session token:
// who the user is and which role they hold in which project.
type Session struct {
	UserID      string
	ProjectID   uuid.UUID
	ProjectRole MembershipRole
}

// GenerateSessionToken creates a signed token embedding the user's project
// membership. Issued by the login flow, which is outside this service.
func GenerateSessionToken(session Session, secret []byte, ttl time.Duration) (string, int64, error) {
	expirationTime := time.Now().Add(ttl).Unix()
	claims := jwt.MapClaims{
		"sub":          session.UserID,
		"project_id":   session.ProjectID.String(),
		"project_role": session.ProjectRole.String(),
		"exp":          expirationTime,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(secret)
	if err != nil {
		return "", 0, err
	}
	return signedToken, expirationTime, nil
}

// ParseSessionToken verifies a session token and extracts the session.
func ParseSessionToken(tokenString string, secret []byte) (*Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSession
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidSession
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, ErrInvalidSession
	}

	projectIDStr, ok := claims["project_id"].(string)
	if !ok {
		return nil, ErrInvalidSession
	}
	projectID, err := uuid.Parse(projectIDStr)
	if err != nil {
		return nil, ErrInvalidSession
	}

	roleStr, ok := claims["project_role"].(string)
	role := MembershipRole(roleStr)
	if !ok || !role.IsValid() {
		return nil, ErrInvalidSession
	}

	return &Session{
		UserID:      sub,
		ProjectID:   projectID,
		ProjectRole: role,
	}, nil
}
