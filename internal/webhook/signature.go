package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Header names carried by signed payment callbacks.
const (
	SignatureHeader = "X-Webhook-Signature"
	TimestampHeader = "X-Webhook-Timestamp"

	signaturePrefix = "sha256="
)

// Verification errors.
var (
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrMissingTimestamp = errors.New("missing webhook timestamp")
	ErrInvalidTimestamp = errors.New("invalid webhook timestamp")
	ErrStaleTimestamp   = errors.New("webhook timestamp outside tolerance")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Verifier checks HMAC-SHA256 signatures over "<timestamp>.<body>".
type Verifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewVerifier creates a verifier for secret. Timestamps further than
// tolerance from the current time are rejected.
func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	return &Verifier{
		secret:    []byte(secret),
		tolerance: tolerance,
		now:       time.Now,
	}
}

// Sign returns the signature and timestamp header values for body sent at ts.
func (v *Verifier) Sign(body []byte, ts time.Time) (signature, timestamp string) {
	timestamp = strconv.FormatInt(ts.Unix(), 10)
	return signaturePrefix + hex.EncodeToString(v.mac(timestamp, body)), timestamp
}

// Verify validates the signature and timestamp header values against body.
func (v *Verifier) Verify(body []byte, signature, timestamp string) error {
	if signature == "" {
		return ErrMissingSignature
	}
	if timestamp == "" {
		return ErrMissingTimestamp
	}

	secs, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidTimestamp
	}
	skew := v.now().Sub(time.Unix(secs, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > v.tolerance {
		return ErrStaleTimestamp
	}

	hexSig, ok := strings.CutPrefix(signature, signaturePrefix)
	if !ok {
		return ErrInvalidSignature
	}
	got, err := hex.DecodeString(hexSig)
	if err != nil {
		return ErrInvalidSignature
	}
	if !hmac.Equal(got, v.mac(timestamp, body)) {
		return ErrInvalidSignature
	}
	return nil
}

// ReplayKey returns the canonical lower-case hex MAC of a delivery. Unlike
// the raw signature header it does not change with the hex digits' case.
func (v *Verifier) ReplayKey(body []byte, timestamp string) string {
	return hex.EncodeToString(v.mac(timestamp, body))
}

func (v *Verifier) mac(timestamp string, body []byte) []byte {
	h := hmac.New(sha256.New, v.secret)
	h.Write([]byte(timestamp))
	h.Write([]byte{'.'})
	h.Write(body)
	return h.Sum(nil)
}
