package auth

import (
	"fmt"
	"net/http"
)

// UserProvider resolves the current user for a request. Identity management
// is an external concern; video creation only requires an already-resolved
// owner.
type UserProvider interface {
	CurrentUser(r *http.Request) (string, error)
}

// HeaderProvider reads the user from the X-User-ID header, falling back to a
// configured default when the header is absent. Suitable behind a gateway
// that authenticates and stamps the header.
type HeaderProvider struct {
	DefaultUser string
}

func (p *HeaderProvider) CurrentUser(r *http.Request) (string, error) {
	if user := r.Header.Get("X-User-ID"); user != "" {
		return user, nil
	}
	if p.DefaultUser != "" {
		return p.DefaultUser, nil
	}
	return "", fmt.Errorf("no user identity on request")
}
