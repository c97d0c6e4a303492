package utpm

import (
	"crypto/subtle"
	"encoding/binary"
)

// legacyConfounderSize matches the original source's confounder-based sealed
// blob format, predating the IV-and-PCR-info layout implemented by Seal.
const legacyConfounderSize = 20

// DecodeLegacySealedBlob decodes a blob produced by the historical
// confounder-based seal format:
//
//	AES-CBC(zero IV)(confounder(20) || hmac(20, zeroed during MAC calc) || pcr0AtRelease(20) || len(u32) || data || padding)
//
// It exists purely to let a host migrate blobs that predate the current
// sealed-blob format; this package provides no corresponding encoder, since
// the format's fixed zero IV and implicit binding to PCR 0 only are both
// weaknesses the current Seal deliberately does not reproduce. The release
// policy is bound to PCR 0 only, matching the original format's hard-coded
// assumption.
func DecodeLegacySealedBlob(blob []byte, hmacKey [HashSize]byte, aesKey [AESKeySize]byte, currentPCR0 PCRValue, crypto Crypto) ([]byte, error) {
	minLen := legacyConfounderSize + HashSize + HashSize + 4
	if len(blob) < minLen || len(blob)%AESBlockSize != 0 {
		return nil, opError("DecodeLegacySealedBlob", ErrMalformed)
	}

	var zeroIV [AESBlockSize]byte
	plaintext, err := crypto.AESDecryptCBC(aesKey, zeroIV, blob)
	if err != nil {
		return nil, opError("DecodeLegacySealedBlob", ErrMalformed)
	}
	defer zeroizeBytes(plaintext)

	pcrAtRelease := plaintext[legacyConfounderSize+HashSize : legacyConfounderSize+HashSize+HashSize]
	if subtle.ConstantTimeCompare(pcrAtRelease, currentPCR0[:]) != 1 {
		return nil, opError("DecodeLegacySealedBlob", ErrPCRMismatch)
	}

	storedMAC := make([]byte, HashSize)
	copy(storedMAC, plaintext[legacyConfounderSize:legacyConfounderSize+HashSize])

	forMAC := make([]byte, len(plaintext))
	copy(forMAC, plaintext)
	zeroizeBytes(forMAC[legacyConfounderSize : legacyConfounderSize+HashSize])
	gotMAC := crypto.HMACSHA1(hmacKey[:], forMAC)
	zeroizeBytes(forMAC)

	if subtle.ConstantTimeCompare(gotMAC[:], storedMAC) != 1 {
		return nil, opError("DecodeLegacySealedBlob", ErrIntegrityFailure)
	}

	lenOffset := legacyConfounderSize + HashSize + HashSize
	// The historical format stored this length in the host's native
	// (little-endian, x86) byte order; preserved here for byte-compatibility
	// with blobs that predate this package.
	dataLen := binary.LittleEndian.Uint32(plaintext[lenOffset : lenOffset+4])
	dataStart := lenOffset + 4
	if dataStart+int(dataLen) > len(plaintext) {
		return nil, opError("DecodeLegacySealedBlob", ErrMalformed)
	}

	out := make([]byte, dataLen)
	copy(out, plaintext[dataStart:dataStart+int(dataLen)])
	return out, nil
}
