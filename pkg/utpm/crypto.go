package utpm

import (
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // fixed by the TPM 1.2 wire format, not a choice
	"fmt"
	"io"
)

// Crypto is the narrow set of primitives the engine consumes. It exists so a
// host can substitute a deterministic or hardware-backed implementation (for
// example in tests) without touching the engine logic; the default
// implementation below is backed entirely by the standard library, which is
// the canonical, already-reviewed home for these specific frozen primitives.
type Crypto interface {
	// SHA1 returns the SHA-1 digest of data.
	SHA1(data []byte) [HashSize]byte

	// HMACSHA1 returns HMAC-SHA1(key, data). key may be any length; callers in
	// this package always pass 20-byte keys.
	HMACSHA1(key, data []byte) [HashSize]byte

	// AESEncryptCBC encrypts plaintext (length a multiple of AESBlockSize)
	// under key and iv using AES-128-CBC.
	AESEncryptCBC(key [AESKeySize]byte, iv [AESBlockSize]byte, plaintext []byte) ([]byte, error)

	// AESDecryptCBC decrypts ciphertext (length a multiple of AESBlockSize)
	// under key and iv using AES-128-CBC.
	AESDecryptCBC(key [AESKeySize]byte, iv [AESBlockSize]byte, ciphertext []byte) ([]byte, error)

	// RSASignPKCS1v15SHA1 signs message with RSA-PKCS#1 v1.5 over its SHA-1
	// digest, returning an RSAKeySize-byte signature.
	RSASignPKCS1v15SHA1(key *rsa.PrivateKey, message []byte) ([]byte, error)

	// RandomBytes returns n cryptographically random bytes, or
	// ErrInsufficientEntropy if the source could not supply them.
	RandomBytes(n int) ([]byte, error)
}

// defaultCrypto is the standard-library-backed Crypto implementation used
// when InstanceConfig.Crypto is left nil.
type defaultCrypto struct {
	rand io.Reader
}

func newDefaultCrypto(r io.Reader) *defaultCrypto {
	if r == nil {
		r = rand.Reader
	}
	return &defaultCrypto{rand: r}
}

func (c *defaultCrypto) SHA1(data []byte) [HashSize]byte {
	return sha1.Sum(data)
}

func (c *defaultCrypto) HMACSHA1(key, data []byte) [HashSize]byte {
	mac := hmac.New(sha1.New, key)
	mac.Write(data)
	var out [HashSize]byte
	copy(out[:], mac.Sum(nil))
	return out
}

func (c *defaultCrypto) AESEncryptCBC(key [AESKeySize]byte, iv [AESBlockSize]byte, plaintext []byte) ([]byte, error) {
	if len(plaintext)%AESBlockSize != 0 {
		return nil, fmt.Errorf("aes cbc encrypt: plaintext length %d not a multiple of %d: %w", len(plaintext), AESBlockSize, ErrBadParam)
	}
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("aes cbc encrypt: %w", err)
	}
	out := make([]byte, len(plaintext))
	ivCopy := iv
	mode := cipher.NewCBCEncrypter(block, ivCopy[:])
	mode.CryptBlocks(out, plaintext)
	return out, nil
}

func (c *defaultCrypto) AESDecryptCBC(key [AESKeySize]byte, iv [AESBlockSize]byte, ciphertext []byte) ([]byte, error) {
	if len(ciphertext)%AESBlockSize != 0 {
		return nil, fmt.Errorf("aes cbc decrypt: ciphertext length %d not a multiple of %d: %w", len(ciphertext), AESBlockSize, ErrBadParam)
	}
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("aes cbc decrypt: %w", err)
	}
	out := make([]byte, len(ciphertext))
	ivCopy := iv
	mode := cipher.NewCBCDecrypter(block, ivCopy[:])
	mode.CryptBlocks(out, ciphertext)
	return out, nil
}

func (c *defaultCrypto) RSASignPKCS1v15SHA1(key *rsa.PrivateKey, message []byte) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("rsa sign: %w", ErrBadParam)
	}
	digest := sha1.Sum(message) //nolint:gosec // fixed by the quote wire format
	sig, err := rsa.SignPKCS1v15(nil, key, crypto.SHA1, digest[:])
	if err != nil {
		return nil, fmt.Errorf("rsa sign: %w", err)
	}
	return sig, nil
}

func (c *defaultCrypto) RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := io.ReadFull(c.rand, buf)
	if err != nil || read != n {
		return nil, fmt.Errorf("random bytes: got %d of %d: %w", read, n, ErrInsufficientEntropy)
	}
	return buf, nil
}
