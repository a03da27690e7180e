package middleware

import (
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wsforge-go/wsforge"
)

// BearerAuth validates a JWT carried in an application-level "/auth <token>"
// message before allowing any further dispatch on that connection. Unlike
// the teacher's cookie/session auth (explicitly out of scope per spec.md's
// Non-goals), the token rides in a normal Text message rather than an HTTP
// header, since the core listener's HTTP path never reaches this far.
type BearerAuth struct {
	secret []byte

	mu            sync.Mutex
	authenticated map[wsforge.ConnectionID]bool
}

// NewBearerAuth builds a BearerAuth validating HS256 tokens signed with secret.
func NewBearerAuth(secret []byte) *BearerAuth {
	return &BearerAuth{secret: secret, authenticated: make(map[wsforge.ConnectionID]bool)}
}

// Middleware returns the wsforge.Middleware enforcing the authenticate-once
// gate. Install it ahead of any middleware/handler that should require auth.
func (b *BearerAuth) Middleware() wsforge.Middleware {
	return func(ctx *wsforge.Context, next wsforge.Next) (wsforge.Response, error) {
		connID := ctx.Conn.ID()

		if text, ok := ctx.Message.Text(); ok && strings.HasPrefix(text, "/auth ") {
			token := strings.TrimSpace(strings.TrimPrefix(text, "/auth "))
			if err := b.verify(token); err != nil {
				return wsforge.Response{}, wsforge.NewCustomError("authentication failed: " + err.Error())
			}
			b.mu.Lock()
			b.authenticated[connID] = true
			b.mu.Unlock()
			return wsforge.TextResponse("authenticated"), nil
		}

		b.mu.Lock()
		ok := b.authenticated[connID]
		b.mu.Unlock()
		if !ok {
			return wsforge.Response{}, wsforge.NewCustomError("authentication required, send /auth <token> first")
		}
		return next(ctx)
	}
}

func (b *BearerAuth) verify(token string) error {
	_, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return b.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	return err
}

// Forget drops connID's authentication state. Wire this into
// Router.OnDisconnect so the map doesn't grow unbounded over a long-running
// server's lifetime.
func (b *BearerAuth) Forget(registry *wsforge.ConnectionRegistry, connID wsforge.ConnectionID) {
	b.mu.Lock()
	delete(b.authenticated, connID)
	b.mu.Unlock()
}
