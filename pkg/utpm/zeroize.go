package utpm

import (
	"crypto/rsa"
	"math/big"
	"runtime"
)

// zeroizeBytes overwrites buf with zeros and uses runtime.KeepAlive to defeat
// dead-store elimination, so the clear is not optimized away by the compiler
// before the buffer goes out of scope.
func zeroizeBytes(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	runtime.KeepAlive(buf)
}

// zeroizeRSAPrivateKey clears the private exponent material of key in place.
// This is best-effort: math/big.Int does not guarantee its backing array is
// not shared or already copied elsewhere, but it denies the most direct path
// to recovering the key from a live Instance after Close.
func zeroizeRSAPrivateKey(key *rsa.PrivateKey) {
	if key == nil {
		return
	}
	zeroizeBigInt(key.D)
	for _, p := range key.Primes {
		zeroizeBigInt(p)
	}
	if key.Precomputed.Dp != nil {
		zeroizeBigInt(key.Precomputed.Dp)
	}
	if key.Precomputed.Dq != nil {
		zeroizeBigInt(key.Precomputed.Dq)
	}
	if key.Precomputed.Qinv != nil {
		zeroizeBigInt(key.Precomputed.Qinv)
	}
}

func zeroizeBigInt(n *big.Int) {
	if n == nil {
		return
	}
	bits := n.Bits()
	for i := range bits {
		bits[i] = 0
	}
	n.SetInt64(0)
}
