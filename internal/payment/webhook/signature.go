package webhook

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	maxHeaderLen = 4096
	maxDigests   = 16
	timestampKey = "t"
	digestKeyV1  = "v1"
)

var ErrMalformedSignature = errors.New("malformed signature header")

// Signature is a parsed fygaro-signature header:
// "t=<unix-seconds>,v1=<hex>[,v1=<hex>...]".
type Signature struct {
	Timestamp int64
	// RawTimestamp is t exactly as sent; it is what the gateway signed.
	RawTimestamp string
	// Digests holds every distinct v1 value. More than one is sent while
	// the gateway rotates its secret.
	Digests []string
}

func ParseSignatureHeader(header string) (Signature, error) {
	if header == "" {
		return Signature{}, fmt.Errorf("%w: empty", ErrMalformedSignature)
	}
	if len(header) > maxHeaderLen {
		return Signature{}, fmt.Errorf("%w: too long", ErrMalformedSignature)
	}

	var (
		sig  Signature
		seen = map[string]struct{}{}
	)
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			return Signature{}, fmt.Errorf("%w: unparseable element %q", ErrMalformedSignature, part)
		}

		switch key {
		case timestampKey:
			if sig.RawTimestamp != "" {
				return Signature{}, fmt.Errorf("%w: repeated timestamp", ErrMalformedSignature)
			}
			ts, err := parseTimestamp(value)
			if err != nil {
				return Signature{}, err
			}
			sig.Timestamp, sig.RawTimestamp = ts, value
		case digestKeyV1:
			d := strings.ToLower(value)
			if _, dup := seen[d]; dup {
				continue
			}
			if len(seen) == maxDigests {
				return Signature{}, fmt.Errorf("%w: too many digests", ErrMalformedSignature)
			}
			seen[d] = struct{}{}
			sig.Digests = append(sig.Digests, d)
		}
	}

	if sig.RawTimestamp == "" {
		return Signature{}, fmt.Errorf("%w: missing timestamp", ErrMalformedSignature)
	}
	if len(sig.Digests) == 0 {
		return Signature{}, fmt.Errorf("%w: no v1 digest", ErrMalformedSignature)
	}
	return sig, nil
}

func parseTimestamp(v string) (int64, error) {
	for _, r := range v {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: timestamp %q is not decimal seconds", ErrMalformedSignature, v)
		}
	}
	ts, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: timestamp out of range", ErrMalformedSignature)
	}
	return ts, nil
}
