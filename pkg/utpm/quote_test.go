package utpm

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // fixed by the TPM 1.2 wire format
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func testRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return key
}

// TestQuoteShape implements spec.md §8 scenario 6: a quote over a
// single-PCR selection produces composite || u32be(keySize) || signature,
// and the signature verifies over the exact 48-byte TPM_QUOTE_INFO bytes.
func TestQuoteShape(t *testing.T) {
	c := newDefaultCrypto(nil)
	bank := NewBank()
	rsaKey := testRSAKey(t)

	var measurement PCRValue
	measurement[0] = 0x01
	require.NoError(t, bank.Extend(c, 0, measurement))

	sel, _ := NewSelection(0)
	var nonce Nonce
	copy(nonce[:], []byte("external verifier nonce"))

	out, err := quoteAppend(c, bank, sel, nonce, rsaKey)
	require.NoError(t, err)

	wantComposite := bank.BuildCurrentComposite(sel)
	require.Equal(t, wantComposite, out[:len(wantComposite)], "quote does not begin with the expected composite")

	n := len(wantComposite)
	keySize := binary.BigEndian.Uint32(out[n:])
	require.Equal(t, uint32(RSAKeySize), keySize)
	n += 4

	sig := out[n:]
	require.Len(t, sig, RSAKeySize)

	compositeHash, err := bank.CurrentCompositeHash(c, sel)
	require.NoError(t, err)
	quoteInfo := buildQuoteInfo(compositeHash, nonce)
	require.Len(t, quoteInfo[:], 48)

	digest := sha1.Sum(quoteInfo[:])
	require.NoError(t, rsa.VerifyPKCS1v15(&rsaKey.PublicKey, crypto.SHA1, digest[:], sig), "signature does not verify")
}

func TestQuoteEmptySelectionIsBadParam(t *testing.T) {
	c := newDefaultCrypto(nil)
	bank := NewBank()
	rsaKey := testRSAKey(t)

	if _, err := quoteAppend(c, bank, Selection{}, Nonce{}, rsaKey); !isErr(err, ErrBadParam) {
		t.Fatalf("got %v, want ErrBadParam", err)
	}
}

// TestQuoteUndersizedBufferReportsRequiredSize implements spec.md §8
// scenario 7: passing too small a buffer to Quote fails with
// ErrOutputTooSmall and recovers the exact required size.
func TestQuoteUndersizedBufferReportsRequiredSize(t *testing.T) {
	c := newDefaultCrypto(nil)
	bank := NewBank()
	rsaKey := testRSAKey(t)

	sel, _ := NewSelection(0)
	_, err := quote(c, bank, sel, Nonce{}, rsaKey, make([]byte, 1))

	var sizeErr *RequiredSizeError
	if !asRequiredSizeError(err, &sizeErr) {
		t.Fatalf("got %v, want *RequiredSizeError", err)
	}
	if !isErr(err, ErrOutputTooSmall) {
		t.Fatalf("got %v, want wrapping ErrOutputTooSmall", err)
	}

	composite := bank.BuildCurrentComposite(sel)
	want := len(composite) + 4 + RSAKeySize
	if sizeErr.Required != want {
		t.Fatalf("Required = %d, want %d", sizeErr.Required, want)
	}

	buf := make([]byte, sizeErr.Required)
	n, err := quote(c, bank, sel, Nonce{}, rsaKey, buf)
	if err != nil {
		t.Fatalf("quote with exact-size buffer: %v", err)
	}
	if n != sizeErr.Required {
		t.Fatalf("wrote %d bytes, want %d", n, sizeErr.Required)
	}
}

func asRequiredSizeError(err error, target **RequiredSizeError) bool {
	for err != nil {
		if e, ok := err.(*RequiredSizeError); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
