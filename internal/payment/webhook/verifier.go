package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"

	"github.com/zoobzio/clockz"
)

const (
	SignatureHeader = "fygaro-signature"
	KeyIDHeader     = "fygaro-key-id"

	DefaultTolerance = 300 * time.Second
)

var ErrMissingConfiguration = errors.New("missing webhook verifier configuration")

// Reason says why a notification was rejected. It is for logs and metrics
// only and must never reach the HTTP response.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonMalformedHeader   Reason = "malformed_header"
	ReasonKeyMismatch       Reason = "key_mismatch"
	ReasonStaleTimestamp    Reason = "stale_timestamp"
	ReasonSignatureMismatch Reason = "signature_mismatch"
)

// Envelope is an inbound notification exactly as received.
type Envelope struct {
	SignatureHeader string
	KeyID           string
	RawBody         []byte
}

// Result is Valid(timestamp, body) or Invalid(reason).
type Result struct {
	Valid     bool
	Timestamp int64
	Body      []byte
	Reason    Reason
}

func invalid(r Reason) Result { return Result{Reason: r} }

// Verifier authenticates gateway notifications. It holds only immutable
// configuration and is safe for concurrent use.
type Verifier struct {
	secrets   [][]byte
	keyID     []byte
	tolerance time.Duration
	clock     clockz.Clock
}

type Option func(*Verifier)

// WithPreviousSecret also accepts digests made with an older secret while
// the gateway rotates. Empty values are ignored.
func WithPreviousSecret(secret string) Option {
	return func(v *Verifier) {
		if secret != "" {
			v.secrets = append(v.secrets, []byte(secret))
		}
	}
}

func WithTolerance(d time.Duration) Option {
	return func(v *Verifier) { v.tolerance = d }
}

func WithClock(c clockz.Clock) Option {
	return func(v *Verifier) { v.clock = c }
}

func NewVerifier(secret, keyID string, opts ...Option) (*Verifier, error) {
	if secret == "" || keyID == "" {
		return nil, ErrMissingConfiguration
	}

	v := &Verifier{
		secrets:   [][]byte{[]byte(secret)},
		keyID:     []byte(keyID),
		tolerance: DefaultTolerance,
		clock:     clockz.RealClock,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Verify runs parse, key check, freshness and integrity in that order and
// stops at the first failure. Its outcome depends only on the envelope,
// the clock and the configuration.
func (v *Verifier) Verify(env Envelope) Result {
	sig, err := ParseSignatureHeader(env.SignatureHeader)
	if err != nil {
		return invalid(ReasonMalformedHeader)
	}

	if subtle.ConstantTimeCompare([]byte(env.KeyID), v.keyID) != 1 {
		return invalid(ReasonKeyMismatch)
	}

	if !v.fresh(sig.Timestamp) {
		return invalid(ReasonStaleTimestamp)
	}

	if !v.digestMatches(sig, env.RawBody) {
		return invalid(ReasonSignatureMismatch)
	}

	return Result{Valid: true, Timestamp: sig.Timestamp, Body: env.RawBody}
}

// fresh reports |now - t| <= tolerance in whole seconds. Future timestamps
// are held to the same window.
func (v *Verifier) fresh(ts int64) bool {
	skew := v.clock.Now().Unix() - ts
	if skew < 0 {
		skew = -skew
	}
	return skew <= int64(v.tolerance/time.Second)
}

// digestMatches compares every supplied digest against every configured
// secret without stopping at the first hit.
func (v *Verifier) digestMatches(sig Signature, body []byte) bool {
	matched := 0
	for _, secret := range v.secrets {
		expected := []byte(Sign(secret, sig.RawTimestamp, body))
		for _, d := range sig.Digests {
			if hmac.Equal(expected, []byte(d)) {
				matched++
			}
		}
	}
	return matched > 0
}

// Sign returns hex(HMAC-SHA256(secret, timestamp + "." + body)), the v1
// digest the gateway sends.
func Sign(secret []byte, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
