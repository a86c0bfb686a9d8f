package payment

import (
	"crypto/rand"
	"math/big"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
)

const (
	receiptDigits   = 10
	receiptAttempts = 5

	// Sized for a generous transaction-volume window; the filter rotates
	// once it has seen this many receipts.
	receiptFilterCapacity = 1_000_000
	receiptFilterFPR      = 0.001
)

var receiptMax = new(big.Int).Exp(big.NewInt(10), big.NewInt(receiptDigits), nil)

// ReceiptGenerator produces the opaque receipt references attached to
// gateway orders. Receipts are 10-digit random numeric strings drawn from
// crypto/rand, decoupled from the storefront order id (which does not
// exist yet at gateway-order-creation time). A bloom filter of recently
// issued receipts guards against handing out the same reference twice
// within a process lifetime.
type ReceiptGenerator struct {
	mu     sync.Mutex
	seen   *bloom.BloomFilter
	issued uint
}

// NewReceiptGenerator creates a ReceiptGenerator.
func NewReceiptGenerator() *ReceiptGenerator {
	return &ReceiptGenerator{
		seen: bloom.NewWithEstimates(receiptFilterCapacity, receiptFilterFPR),
	}
}

// Generate returns a fresh 10-digit receipt id.
func (g *ReceiptGenerator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for range receiptAttempts {
		n, err := rand.Int(rand.Reader, receiptMax)
		if err != nil {
			return "", errors.Wrap(err, "read random")
		}
		receipt := padDigits(n.String())

		if g.seen.TestString(receipt) {
			continue
		}

		if g.issued >= receiptFilterCapacity {
			g.seen.ClearAll()
			g.issued = 0
		}
		g.seen.AddString(receipt)
		g.issued++
		return receipt, nil
	}

	return "", errors.New("receipt generation exhausted attempts")
}

func padDigits(s string) string {
	for len(s) < receiptDigits {
		s = "0" + s
	}
	return s
}
