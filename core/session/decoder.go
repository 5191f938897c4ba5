package session

import (
	"sort"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrDecode       = errors.New("invalid session token")
	ErrTokenExpired = errors.New("session token expired")
)

// IsDecodeError reports whether err means the token cannot back a session.
func IsDecodeError(err error) bool {
	cause := errors.Cause(err)
	return cause == ErrDecode || cause == ErrTokenExpired
}

// Decoder extracts Claims from a raw bearer token.
type Decoder interface {
	Decode(raw string) (Claims, error)
}

type jwtDecoder struct {
	roles  []string
	parser *jwt.Parser
}

var _ Decoder = (*jwtDecoder)(nil)

// NewDecoder returns a Decoder accepting the given roles (KnownRoles if none).
//
// The signature is NOT verified: claims are only used to gate what the dashboard shows.
// The backend verifies the token on every request it serves.
func NewDecoder(roles ...string) Decoder {
	if len(roles) == 0 {
		roles = KnownRoles
	}
	sorted := append([]string(nil), roles...)
	sort.Strings(sorted)
	return &jwtDecoder{roles: sorted, parser: new(jwt.Parser)}
}

func (d *jwtDecoder) Decode(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, errors.Wrap(ErrDecode, "empty token")
	}

	claims := new(Claims)
	if _, _, err := d.parser.ParseUnverified(raw, claims); err != nil {
		return Claims{}, errors.Wrap(ErrDecode, err.Error())
	}
	if claims.User.Role == "" {
		return Claims{}, errors.Wrap(ErrDecode, "missing user role")
	}
	if !isKnownRole(d.roles, claims.User.Role) {
		return Claims{}, errors.Wrapf(ErrDecode, "unknown role %q", claims.User.Role)
	}
	if !claims.VerifyExpiresAt(NowFunc().Unix(), false) {
		return Claims{}, ErrTokenExpired
	}
	return *claims, nil
}
