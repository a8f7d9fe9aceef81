package helpers

import "github.com/google/uuid"

// EnhancedClaims are the verified token claims plus the profile row, stored
// on the request context under "user".
type EnhancedClaims struct {
	*CustomClaims
	UserID      string `json:"id"`
	Email       string `json:"email,omitempty"`
	Name        string `json:"name,omitempty"`
	AccessToken string `json:"-"`
}

func (ec *EnhancedClaims) IsOwner(userID string) bool {
	return ec != nil && ec.UserID != "" && ec.UserID == userID
}

// ID parses UserID. Anonymous or malformed claims yield uuid.Nil.
func (ec *EnhancedClaims) ID() uuid.UUID {
	if ec == nil {
		return uuid.Nil
	}
	id, err := uuid.Parse(ec.UserID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func (ec *EnhancedClaims) GetDisplayName() string {
	if ec.Name != "" {
		return ec.Name
	}
	if n := ec.CustomClaims.DisplayName(); n != "" {
		return n
	}
	return ec.Email
}
