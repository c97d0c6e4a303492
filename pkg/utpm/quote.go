package utpm

import (
	"crypto/rsa"
	"encoding/binary"
)

// quoteInfoSize is the fixed size of TPM_QUOTE_INFO: version(4) || "QUOT"(4)
// || composite-hash(20) || external-nonce(20).
const quoteInfoSize = 4 + 4 + HashSize + NonceSize

var (
	quoteVersion = [4]byte{0x01, 0x01, 0x00, 0x00}
	quoteFixed   = [4]byte{'Q', 'U', 'O', 'T'}
)

// buildQuoteInfo assembles the fixed 48-byte TPM_QUOTE_INFO structure signed
// by Quote.
func buildQuoteInfo(compositeHash PCRValue, externalNonce Nonce) [quoteInfoSize]byte {
	var out [quoteInfoSize]byte
	n := copy(out[:], quoteVersion[:])
	n += copy(out[n:], quoteFixed[:])
	n += copy(out[n:], compositeHash[:])
	copy(out[n:], externalNonce[:])
	return out
}

// quote implements C5's Quote operation. It requires sel to select at least
// one PCR (an empty selection cannot be quoted). The output is
// composite || u32-be(RSAKeySize) || sig, written into outBuf; if outBuf is
// too small, a *RequiredSizeError wrapping ErrOutputTooSmall is returned with
// the required length.
func quote(crypto Crypto, bank *Bank, sel Selection, externalNonce Nonce, rsaKey *rsa.PrivateKey, outBuf []byte) (int, error) {
	if sel.SizeOfSelect == 0 {
		return 0, opError("Quote", ErrBadParam)
	}

	composite := bank.BuildCurrentComposite(sel)
	compositeHash, err := bank.CurrentCompositeHash(crypto, sel)
	if err != nil {
		return 0, opError("Quote", err)
	}

	required := len(composite) + 4 + RSAKeySize
	if len(outBuf) < required {
		return 0, &RequiredSizeError{Op: "Quote", Required: required}
	}

	quoteInfo := buildQuoteInfo(compositeHash, externalNonce)
	sig, err := crypto.RSASignPKCS1v15SHA1(rsaKey, quoteInfo[:])
	if err != nil {
		return 0, opError("Quote", err)
	}
	if len(sig) != RSAKeySize {
		return 0, opError("Quote", ErrInternal)
	}

	n := copy(outBuf, composite)
	binary.BigEndian.PutUint32(outBuf[n:], RSAKeySize)
	n += 4
	n += copy(outBuf[n:], sig)
	return n, nil
}

// quoteAppend is the allocating convenience form of quote: it sizes its own
// buffer from the current PCR bank and selection rather than requiring the
// caller to pre-size one.
func quoteAppend(crypto Crypto, bank *Bank, sel Selection, externalNonce Nonce, rsaKey *rsa.PrivateKey) ([]byte, error) {
	buf := make([]byte, len(bank.BuildCurrentComposite(sel))+4+RSAKeySize)
	n, err := quote(crypto, bank, sel, externalNonce, rsaKey, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}
