package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// mintNumber builds document numbers like INV-1735689600000-04821. The
// millisecond timestamp keeps numbers sortable; the random suffix guards
// against two documents minted in the same millisecond.
func mintNumber(prefix string, digits int) string {
	ceiling := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, ceiling)
	suffix := int64(0)
	if err == nil {
		suffix = n.Int64()
	} else {
		suffix = time.Now().UnixNano() % ceiling.Int64()
	}
	return fmt.Sprintf("%s-%d-%0*d", prefix, time.Now().UnixMilli(), digits, suffix)
}

func mintInvoiceNumber() string {
	return mintNumber("INV", 5)
}

func mintPONumber() string {
	return mintNumber("PO", 9)
}

func mintTrackingNumber() string {
	return mintNumber("SHP", 8)
}
