package identity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-docsync/pkg/interfaces"
)

// TokenPrefix marks side-channel values written by the engine.
const TokenPrefix = "DS:"

var ErrTokenInvalid = errors.New("identity: token invalid")

// Token binds a host node to a remote artifact.
type Token struct {
	Kind         interfaces.ArtifactKind
	ID           int
	LastModified time.Time
}

// String renders the identity field value, e.g. "DS:RQ42".
func (t Token) String() string {
	return TokenPrefix + t.Kind.Code() + strconv.Itoa(t.ID)
}

// Valid reports whether the token names a known kind and a positive id.
func (t Token) Valid() bool {
	return t.Kind.Code() != "" && t.ID > 0
}

// Parse decodes an identity field value. Anything not produced by String
// reports false.
func Parse(value string) (Token, bool) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(strings.ToUpper(value), TokenPrefix) {
		return Token{}, false
	}
	rest := value[len(TokenPrefix):]
	if len(rest) < 3 {
		return Token{}, false
	}
	kind, ok := interfaces.KindFromCode(rest[:2])
	if !ok {
		return Token{}, false
	}
	digits := rest[2:]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return Token{}, false
		}
	}
	id, err := strconv.Atoi(digits)
	if err != nil || id <= 0 {
		return Token{}, false
	}
	return Token{Kind: kind, ID: id}, true
}

// FormatStamp renders a concurrency stamp.
func FormatStamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ParseStamp decodes a concurrency stamp.
func ParseStamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return parsed.UTC(), true
}

// Resolve reads the token stored on a node. A missing prefix, a malformed id
// or a kind other than expected all report absent.
func Resolve(side interfaces.SideChannel, expected interfaces.ArtifactKind) (Token, bool) {
	if side == nil {
		return Token{}, false
	}
	token, ok := Parse(side.Identity())
	if !ok || token.Kind != expected {
		return Token{}, false
	}
	if stamp, ok := ParseStamp(side.Stamp()); ok {
		token.LastModified = stamp
	}
	return token, true
}

// Stamp writes the identity and concurrency fields of a node. Nodes without a
// side channel are skipped.
func Stamp(side interfaces.SideChannel, token Token) error {
	if side == nil {
		return nil
	}
	if !token.Valid() {
		return fmt.Errorf("%w: kind %q id %d", ErrTokenInvalid, token.Kind, token.ID)
	}
	if err := side.SetIdentity(token.String()); err != nil {
		return fmt.Errorf("identity: write token: %w", err)
	}
	stamp := ""
	if !token.LastModified.IsZero() {
		stamp = FormatStamp(token.LastModified)
	}
	if err := side.SetStamp(stamp); err != nil {
		return fmt.Errorf("identity: write stamp: %w", err)
	}
	return nil
}

// ApplyStamp decides which concurrency stamp accompanies an update. An empty
// local stamp is seeded from the remote one. Otherwise the local stamp wins
// without comparison; an unparseable local stamp falls back to the remote.
func ApplyStamp(side interfaces.SideChannel, remote time.Time) time.Time {
	if side == nil {
		return remote
	}
	local := strings.TrimSpace(side.Stamp())
	if local == "" {
		return remote
	}
	if parsed, ok := ParseStamp(local); ok {
		return parsed
	}
	return remote
}

// IsIgnored reports whether the node's identity field carries the sentinel.
func IsIgnored(side interfaces.SideChannel, sentinel string) bool {
	if side == nil || strings.TrimSpace(sentinel) == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(side.Identity()), strings.TrimSpace(sentinel))
}
