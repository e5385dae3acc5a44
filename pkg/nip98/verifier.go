// Package nip98 authenticates remote administrative requests from a signed
// event envelope carried in the Authorization header. Verification is pure
// public-key cryptography per request: no session, cookie or server-side
// state. There is deliberately no replay cache, so a captured valid
// envelope stays usable against the same URL for the full timestamp
// window; callers that need replay protection must layer it above this
// package.
package nip98

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"relay-policyd/pkg/nostr"
)

// Scheme is the credential prefix for signed-event authorization.
const Scheme = "Nostr "

// MaxTimestampAge bounds how far an envelope's created_at may drift from
// verifier wall-clock time, in either direction.
const MaxTimestampAge = 60 * time.Second

var (
	ErrMalformedScheme   = errors.New("authorization credential does not carry the Nostr scheme")
	ErrMalformedPayload  = errors.New("authorization credential is not a base64-encoded event")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrWrongKind         = errors.New("event kind is not an HTTP authorization event")
	ErrStaleTimestamp    = errors.New("event timestamp outside allowed window")
	ErrMissingMethodTag  = errors.New("event is missing a method tag")
	ErrMethodMismatch    = errors.New("event method tag does not match request method")
	ErrMissingURLTag     = errors.New("event is missing a u tag")
	ErrURLMismatch       = errors.New("event u tag does not match request URL")
	ErrMissingPayloadTag = errors.New("event is missing a payload tag")
)

// Verifier validates signed authorization envelopes. It is stateless and
// safe for concurrent use.
type Verifier struct {
	now func() time.Time
}

type Option func(*Verifier)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) { v.now = now }
}

func NewVerifier(opts ...Option) *Verifier {
	v := &Verifier{now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Authenticate validates the credential against the guarded request and
// returns the embedded public key as the authenticated identity. The
// returned key proves only who the caller is; relay authority is decided
// separately.
func (v *Verifier) Authenticate(credential, method, rawURL string) (string, error) {
	if !strings.HasPrefix(credential, Scheme) {
		return "", ErrMalformedScheme
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(credential, Scheme))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	var ev nostr.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if err := ev.CheckSignature(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	if ev.Kind != nostr.KindHTTPAuth {
		return "", fmt.Errorf("%w: got kind %d", ErrWrongKind, ev.Kind)
	}

	age := v.now().Unix() - ev.CreatedAt
	if age > int64(MaxTimestampAge/time.Second) || -age > int64(MaxTimestampAge/time.Second) {
		return "", fmt.Errorf("%w: age %ds", ErrStaleTimestamp, age)
	}

	m, ok := ev.TagValue("method")
	if !ok {
		return "", ErrMissingMethodTag
	}
	if m != method {
		return "", fmt.Errorf("%w: signed %q, request %q", ErrMethodMismatch, m, method)
	}

	u, ok := ev.TagValue("u")
	if !ok {
		return "", ErrMissingURLTag
	}
	if !samePath(u, rawURL) {
		return "", fmt.Errorf("%w: signed %q, request %q", ErrURLMismatch, u, rawURL)
	}

	// The payload tag is required but its hash is not re-checked here; body
	// integrity belongs to the transport layer.
	if _, ok := ev.TagValue("payload"); !ok {
		return "", ErrMissingPayloadTag
	}

	return ev.PubKey, nil
}

func samePath(signed, requested string) bool {
	su, err := url.Parse(signed)
	if err != nil {
		return false
	}
	ru, err := url.Parse(requested)
	if err != nil {
		return false
	}
	return su.Path == ru.Path
}
