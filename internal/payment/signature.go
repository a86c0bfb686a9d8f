package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/go-faster/errors"
)

// ErrSignatureMismatch is returned when a payment callback signature does
// not authenticate. It is terminal for the payment attempt.
var ErrSignatureMismatch = errors.New("payment signature verification failed")

// SignatureVerifier authenticates Razorpay payment callbacks.
type SignatureVerifier struct {
	secret []byte
}

// NewSignatureVerifier creates a verifier keyed with the gateway's shared
// secret.
func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret)}
}

// Verify reports whether signature is the hex HMAC-SHA256 digest of
// "gatewayOrderID|paymentID" under the shared secret. The comparison is
// constant-time; malformed input yields false, never an error.
func (v *SignatureVerifier) Verify(gatewayOrderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	expected := mac.Sum(nil)

	supplied, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(expected, supplied) == 1
}
