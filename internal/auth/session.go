package auth

import (
	"net/http"
	"strings"
)

// CookieName is the cookie carrying the session token for browser clients.
const CookieName = "session"

// Session identifies the authenticated user of a single request.
type Session struct {
	UserID string
}

// SessionResolver extracts a session from an inbound request.
type SessionResolver interface {
	Resolve(r *http.Request) (Session, bool)
}

type tokenResolver struct {
	tokens *TokenManager
}

// NewSessionResolver resolves sessions from the session cookie or a bearer
// Authorization header, in that order.
func NewSessionResolver(tokens *TokenManager) SessionResolver {
	return &tokenResolver{tokens: tokens}
}

func (r *tokenResolver) Resolve(req *http.Request) (Session, bool) {
	for _, raw := range candidateTokens(req) {
		session, err := r.tokens.Parse(raw)
		if err == nil && session.UserID != "" {
			return session, true
		}
	}
	return Session{}, false
}

func candidateTokens(req *http.Request) []string {
	var tokens []string
	if c, err := req.Cookie(CookieName); err == nil && strings.TrimSpace(c.Value) != "" {
		tokens = append(tokens, strings.TrimSpace(c.Value))
	}
	header := strings.TrimSpace(req.Header.Get("Authorization"))
	if len(header) > len("bearer ") && strings.EqualFold(header[:len("bearer ")], "bearer ") {
		if v := strings.TrimSpace(header[len("bearer "):]); v != "" {
			tokens = append(tokens, v)
		}
	}
	return tokens
}
