package oauth2svc

import (
	"context"

	"google.golang.org/api/idtoken"
)

type GoogleUser struct {
	Sub           string // Google unique user ID
	Email         string
	Name          string
	GivenName     string
	FamilyName    string
	Picture       string
	EmailVerified bool
}

// VerifyGoogleToken validates the ID token signature and audience and
// extracts the profile claims. Claim presence is checked by the caller.
func VerifyGoogleToken(ctx context.Context, token string, clientID string) (*GoogleUser, error) {
	payload, err := idtoken.Validate(ctx, token, clientID)
	if err != nil {
		return nil, err
	}

	sub, _ := payload.Claims["sub"].(string)
	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	givenName, _ := payload.Claims["given_name"].(string)
	familyName, _ := payload.Claims["family_name"].(string)
	picture, _ := payload.Claims["picture"].(string)
	emailVerified, _ := payload.Claims["email_verified"].(bool)

	return &GoogleUser{
		Sub:           sub,
		Email:         email,
		Name:          name,
		GivenName:     givenName,
		FamilyName:    familyName,
		Picture:       picture,
		EmailVerified: emailVerified,
	}, nil
}
