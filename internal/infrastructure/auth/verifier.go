package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the authenticated principal behind a bearer token.
type Identity struct {
	UserID      string
	DisplayName string
}

// Verifier resolves bearer tokens into identities. Token issuance lives
// upstream; this service only needs to map a presented token to a user.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// StaticVerifier holds a fixed token table, loaded at startup. Suitable for
// development and for deployments where a gateway injects pre-shared tokens.
type StaticVerifier struct {
	mu     sync.RWMutex
	tokens map[string]Identity
}

func NewStaticVerifier(tokens map[string]Identity) *StaticVerifier {
	if tokens == nil {
		tokens = make(map[string]Identity)
	}
	return &StaticVerifier{tokens: tokens}
}

func (v *StaticVerifier) Verify(_ context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrInvalidToken
	}

	v.mu.RLock()
	identity, ok := v.tokens[token]
	v.mu.RUnlock()

	if !ok {
		return Identity{}, ErrInvalidToken
	}
	return identity, nil
}

// Register adds or replaces a token at runtime.
func (v *StaticVerifier) Register(token string, identity Identity) {
	v.mu.Lock()
	v.tokens[token] = identity
	v.mu.Unlock()
}

// ParseTokenTable parses a "token:userId:displayName" list, entries
// separated by commas. Malformed entries are skipped.
func ParseTokenTable(raw string) map[string]Identity {
	tokens := make(map[string]Identity)
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		identity := Identity{UserID: parts[1], DisplayName: parts[1]}
		if len(parts) == 3 && parts[2] != "" {
			identity.DisplayName = parts[2]
		}
		tokens[parts[0]] = identity
	}
	return tokens
}

// TokenFromRequestValue strips an optional "Bearer " prefix so the same
// verifier serves both Authorization headers and websocket query params.
func TokenFromRequestValue(raw string) string {
	raw = strings.TrimSpace(raw)
	if after, ok := strings.CutPrefix(raw, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return raw
}
