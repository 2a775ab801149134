package hub

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/spexcher/Pictionary/crypto"
)

const anonPrefix = "anon_"

type TokenVerifier interface {
	Verify(token string) (crypto.Identity, error)
}

type Identity struct {
	ID            string
	Username      string
	Authenticated bool
}

// bearerToken looks for a JWT in the token cookie, then the Authorization
// header, then the token query parameter.
func bearerToken(r *http.Request) string {
	if c, err := r.Cookie("token"); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); h != "" {
		if t, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(t)
		}
	}
	return r.URL.Query().Get("token")
}

// ResolveIdentity never fails: a missing or bad token falls back to the
// anonymous identity the client proposes, or a fresh one.
func ResolveIdentity(r *http.Request, verifier TokenVerifier) Identity {
	if verifier != nil {
		if token := bearerToken(r); token != "" {
			if id, err := verifier.Verify(token); err == nil {
				return Identity{ID: id.Id, Username: id.Username, Authenticated: true}
			}
		}
	}

	q := r.URL.Query()
	id := strings.TrimSpace(q.Get("anonId"))
	switch {
	case id == "":
		id = anonPrefix + uuid.NewString()
	case !strings.HasPrefix(id, anonPrefix):
		// keeps anonymous ids out of the namespace of issued tokens
		id = anonPrefix + id
	}
	if utf8.RuneCountInString(id) > 64 {
		id = string([]rune(id)[:64])
	}

	name := strings.TrimSpace(q.Get("anonName"))
	if name == "" {
		name = "Guest_" + uuid.NewString()[:6]
	}
	return Identity{ID: id, Username: name}
}
