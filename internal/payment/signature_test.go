package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func hexDigest(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestSignatureVerifier(t *testing.T) {
	const secret = "rzp_test_secret"
	v := NewSignatureVerifier(secret)

	sig := hexDigest(secret, "order_abc|pay_xyz")
	assert.True(t, v.Verify("order_abc", "pay_xyz", sig))
}

func TestSignatureVerifier_AnyFieldChangeFails(t *testing.T) {
	const secret = "rzp_test_secret"
	v := NewSignatureVerifier(secret)

	sig := hexDigest(secret, "order_abc|pay_xyz")

	// Flip one character of the signature.
	tampered := []byte(sig)
	if tampered[0] == 'a' {
		tampered[0] = 'b'
	} else {
		tampered[0] = 'a'
	}
	assert.False(t, v.Verify("order_abc", "pay_xyz", string(tampered)))

	// Change either identifier.
	assert.False(t, v.Verify("order_abd", "pay_xyz", sig))
	assert.False(t, v.Verify("order_abc", "pay_xyy", sig))

	// Wrong secret.
	other := NewSignatureVerifier("another_secret")
	assert.False(t, other.Verify("order_abc", "pay_xyz", sig))
}

func TestSignatureVerifier_MalformedSignature(t *testing.T) {
	v := NewSignatureVerifier("rzp_test_secret")

	for _, sig := range []string{"", "not-hex", "zz", "deadbeef"} {
		assert.False(t, v.Verify("order_abc", "pay_xyz", sig), "signature %q", sig)
	}
}

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		amount string
		want   int64
	}{
		{"200.00", 20000},
		{"199.99", 19999},
		{"0.01", 1},
		{"0", 0},
		{"7997.00", 799700},
		{"10.005", 1001}, // round half away from zero
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MinorUnits(mustDecimal(t, tt.amount)), "amount %s", tt.amount)
	}
}

func TestReceiptGenerator(t *testing.T) {
	g := NewReceiptGenerator()

	seen := make(map[string]struct{})
	for range 100 {
		receipt, err := g.Generate()
		require.NoError(t, err)

		assert.Len(t, receipt, 10)
		for _, c := range receipt {
			assert.True(t, c >= '0' && c <= '9', "receipt %q contains non-digit", receipt)
		}

		_, dup := seen[receipt]
		assert.False(t, dup, "duplicate receipt %q", receipt)
		seen[receipt] = struct{}{}
	}
}

func TestPadDigits(t *testing.T) {
	assert.Equal(t, "0000000042", padDigits("42"))
	assert.Equal(t, "1234567890", padDigits("1234567890"))
}
