package projects

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// publicIDAlphabet leaves out 0/o/1/l/i and uppercase so ids survive being
// read over the phone or scribbled on a site-visit report.
const (
	publicIDAlphabet = "23456789abcdefghjkmnpqrstuvwxyz"
	publicIDLength   = 6
)

// NewPublicID returns an id like "hydro-7kq2m9". Collisions are possible at
// this length; Create retries on the unique constraint.
func NewPublicID(prefix string) (string, error) {
	buf := make([]byte, publicIDLength)
	max := big.NewInt(int64(len(publicIDAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate public id: %w", err)
		}
		buf[i] = publicIDAlphabet[n.Int64()]
	}
	return prefix + "-" + string(buf), nil
}
