package utils

import (
	"crypto/rand"
	"math"
	"math/big"
	"strconv"

	"github.com/google/uuid"
)

// UUID returns a new random UUID string. Message ids and run ids use it.
func UUID() string {
	return uuid.New().String()
}

// NewNonce generates new uint64 nonce with Go's crypto package
func NewNonce() uint64 {
	m := big.NewInt(math.MaxInt64)
	r, err := rand.Int(rand.Reader, m)
	if err != nil {
		panic("cannot create nonce")
	}
	return r.Uint64()
}

// NewNonceStr generates new nonce and returns value as string.
func NewNonceStr() string {
	return strconv.FormatUint(NewNonce(), 10)
}
