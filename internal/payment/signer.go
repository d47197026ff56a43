package payment

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zoobzio/clockz"
)

// TokenParam is the query parameter the hosted checkout reads the token from.
const TokenParam = "jwt"

// Claims is the token payload. Field order is the serialised key order.
type Claims struct {
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	CustomReference string `json:"custom_reference"`
	jwt.RegisteredClaims
}

// LinkSigner turns a PaymentRequest into a checkout URL whose amount,
// currency and reference cannot be edited without breaking the signature.
// It holds only immutable configuration and is safe for concurrent use.
type LinkSigner struct {
	secret  []byte
	keyID   string
	baseURL *url.URL
	clock   clockz.Clock
}

type SignerOption func(*LinkSigner)

func WithSignerClock(c clockz.Clock) SignerOption {
	return func(s *LinkSigner) { s.clock = c }
}

func NewLinkSigner(secret, keyID, baseURL string, opts ...SignerOption) (*LinkSigner, error) {
	var missing []string
	if secret == "" {
		missing = append(missing, "secret")
	}
	if keyID == "" {
		missing = append(missing, "key id")
	}
	if baseURL == "" {
		missing = append(missing, "checkout url")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfiguration, strings.Join(missing, ", "))
	}

	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return nil, fmt.Errorf("%w: checkout url %q is not absolute", ErrMissingConfiguration, baseURL)
	}

	s := &LinkSigner{
		secret:  []byte(secret),
		keyID:   keyID,
		baseURL: u,
		clock:   clockz.RealClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Sign returns the compact header.payload.signature token (HS256, kid set).
func (s *LinkSigner) Sign(req PaymentRequest) (string, error) {
	if req.reference == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidReference)
	}

	claims := Claims{
		Amount:          req.amount,
		Currency:        req.currency,
		CustomReference: req.reference,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(s.clock.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign payment token: %w", err)
	}
	return signed, nil
}

// PaymentURL appends a freshly signed token to the checkout URL.
// Existing query parameters on the configured URL are kept.
func (s *LinkSigner) PaymentURL(req PaymentRequest) (string, error) {
	token, err := s.Sign(req)
	if err != nil {
		return "", err
	}

	u := *s.baseURL
	q := u.Query()
	q.Set(TokenParam, token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Decode verifies a token the way the gateway does: HS256 only, kid must be
// ours, signature must match.
func (s *LinkSigner) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			if kid, _ := t.Header["kid"].(string); kid != s.keyID {
				return nil, fmt.Errorf("unexpected key id %q", kid)
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
