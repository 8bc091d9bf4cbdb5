package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// Download token errors.
var (
	ErrTokenMalformed = errors.New("malformed download token")
	ErrTokenSignature = errors.New("download token signature mismatch")
	ErrTokenExpired   = errors.New("download token expired")
)

// Ticket is what a download token grants: one stored export until ExpiresAt.
type Ticket struct {
	ExportID  string
	Path      string
	ExpiresAt time.Time
}

// SignedURLSigner issues and checks HMAC signed download tokens. A token is
// base64url(exportID \n unix expiry \n path) "." base64url(hmac).
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	clock  clockwork.Clock
}

// NewSignedURLSigner constructs a signer. A nil clock uses wall time.
func NewSignedURLSigner(secret string, ttl time.Duration, clock clockwork.Clock) *SignedURLSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, clock: clock}
}

// Sign returns a token for the export stored at relPath.
func (s *SignedURLSigner) Sign(exportID, relPath string) (string, Ticket, error) {
	if exportID == "" || relPath == "" {
		return "", Ticket{}, errors.New("export id and path required")
	}
	if strings.ContainsRune(exportID, '\n') || strings.ContainsRune(relPath, '\n') {
		return "", Ticket{}, errors.New("export id and path must be single line")
	}
	if len(s.secret) == 0 {
		return "", Ticket{}, errors.New("signing secret missing")
	}
	ticket := Ticket{
		ExportID:  exportID,
		Path:      relPath,
		ExpiresAt: s.clock.Now().Add(s.ttl).Truncate(time.Second),
	}
	payload := strings.Join([]string{exportID, strconv.FormatInt(ticket.ExpiresAt.Unix(), 10), relPath}, "\n")
	token := encode([]byte(payload)) + "." + encode(s.mac(payload))
	return token, ticket, nil
}

// Verify checks the signature and, unless allowExpired, the expiry.
func (s *SignedURLSigner) Verify(token string, allowExpired bool) (Ticket, error) {
	rawPayload, rawMAC, ok := strings.Cut(token, ".")
	if !ok {
		return Ticket{}, ErrTokenMalformed
	}
	payload, err := base64.RawURLEncoding.DecodeString(rawPayload)
	if err != nil {
		return Ticket{}, ErrTokenMalformed
	}
	sum, err := base64.RawURLEncoding.DecodeString(rawMAC)
	if err != nil {
		return Ticket{}, ErrTokenMalformed
	}
	if !hmac.Equal(sum, s.mac(string(payload))) {
		return Ticket{}, ErrTokenSignature
	}

	parts := strings.SplitN(string(payload), "\n", 3)
	if len(parts) != 3 {
		return Ticket{}, ErrTokenMalformed
	}
	expiry, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Ticket{}, ErrTokenMalformed
	}
	ticket := Ticket{ExportID: parts[0], Path: parts[2], ExpiresAt: time.Unix(expiry, 0)}
	if !allowExpired && s.clock.Now().After(ticket.ExpiresAt) {
		return ticket, ErrTokenExpired
	}
	return ticket, nil
}

func (s *SignedURLSigner) mac(payload string) []byte {
	h := hmac.New(sha256.New, s.secret)
	_, _ = h.Write([]byte(payload))
	return h.Sum(nil)
}

func encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}
