package order

import (
	"crypto/rand"
	"fmt"
	"time"
)

// numberAlphabet avoids ambiguous characters (0/O, 1/I/L) in order numbers
// read aloud over support calls.
const numberAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const numberSuffixLen = 10

// NewOrderNumber returns a date-stamped order number with a random suffix,
// e.g. "ORD-20250615-K7M2QXW4ZP". With 31^10 suffix combinations per day,
// collisions are negligible; the database unique constraint is the backstop.
func NewOrderNumber(now time.Time) string {
	buf := make([]byte, numberSuffixLen)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(err)
	}
	for i, b := range buf {
		buf[i] = numberAlphabet[int(b)%len(numberAlphabet)]
	}
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), buf)
}
