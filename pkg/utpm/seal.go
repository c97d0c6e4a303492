package utpm

import (
	"crypto/subtle"
	"encoding/binary"
)

// sealedBlobOverhead is the fixed IV + MAC overhead around the ciphertext:
// 16 bytes of IV plus 20 bytes of trailing HMAC-SHA1.
const sealedBlobOverhead = AESBlockSize + HashSize

// seal implements C4's Seal operation: encrypt-then-MAC over a PCR-info
// header, a length-prefixed plaintext, and zero padding, as laid out in the
// sealed-blob format.
//
//	IV(16) || AES-128-CBC(pcr_info || len_be(u32) || plaintext || zero pad) || HMAC-SHA1(IV || ciphertext)(20)
func seal(crypto Crypto, bank *Bank, sel Selection, digestAtRelease *PCRValue, plaintext []byte, hmacKey [HashSize]byte, aesKey [AESKeySize]byte) ([]byte, error) {
	info := PCRInfo{Selection: sel}
	if sel.SizeOfSelect > 0 {
		digestAtCreation, err := bank.CurrentCompositeHash(crypto, sel)
		if err != nil {
			return nil, opError("Seal", err)
		}
		if digestAtRelease == nil {
			return nil, opError("Seal", ErrBadParam)
		}
		info.DigestAtRelease = *digestAtRelease
		info.DigestAtCreation = digestAtCreation
		info.HasDigests = true
	}

	header := EncodePCRInfo(info)

	prePad := make([]byte, len(header)+4+len(plaintext))
	n := copy(prePad, header)
	binary.BigEndian.PutUint32(prePad[n:], uint32(len(plaintext)))
	n += 4
	copy(prePad[n:], plaintext)

	// Zero-pad to a full AES block multiple. If already aligned, a full
	// padding block is still appended so the length field is never
	// ambiguous with the block boundary.
	padded := padToBlock(prePad)
	zeroizeBytes(prePad)

	ivBytes, err := crypto.RandomBytes(AESBlockSize)
	if err != nil {
		return nil, opError("Seal", err)
	}
	var iv [AESBlockSize]byte
	copy(iv[:], ivBytes)

	ciphertext, err := crypto.AESEncryptCBC(aesKey, iv, padded)
	zeroizeBytes(padded)
	if err != nil {
		return nil, opError("Seal", err)
	}

	out := make([]byte, AESBlockSize+len(ciphertext)+HashSize)
	n = copy(out, iv[:])
	n += copy(out[n:], ciphertext)

	mac := crypto.HMACSHA1(hmacKey[:], out[:n])
	copy(out[n:], mac[:])

	return out, nil
}

// padToBlock returns a copy of data zero-padded to the next AESBlockSize
// multiple; if data is already block-aligned a full extra block of zeros is
// appended, so plaintext_len recovery never has to guess whether the last
// block is real data or pure padding.
func padToBlock(data []byte) []byte {
	padded := len(data) + (AESBlockSize - len(data)%AESBlockSize)
	out := make([]byte, padded)
	copy(out, data)
	return out
}

// unseal implements C4's Unseal operation. Failure ordering is deliberate:
// HMAC is checked before any plaintext byte is touched (rejecting forged
// ciphertext before decryption), structure is parsed second, and the PCR
// release policy is checked last.
func unseal(crypto Crypto, bank *Bank, blob []byte, hmacKey [HashSize]byte, aesKey [AESKeySize]byte) (plaintext []byte, digestAtCreation *PCRValue, err error) {
	if len(blob) < AESBlockSize+sealedBlobOverhead || (len(blob)-HashSize)%AESBlockSize != 0 {
		return nil, nil, opError("Unseal", ErrMalformed)
	}

	ciphertextEnd := len(blob) - HashSize
	ivAndCiphertext := blob[:ciphertextEnd]
	wantMAC := blob[ciphertextEnd:]

	gotMAC := crypto.HMACSHA1(hmacKey[:], ivAndCiphertext)
	if subtle.ConstantTimeCompare(gotMAC[:], wantMAC) != 1 {
		return nil, nil, opError("Unseal", ErrIntegrityFailure)
	}

	var iv [AESBlockSize]byte
	copy(iv[:], ivAndCiphertext[:AESBlockSize])
	ciphertext := ivAndCiphertext[AESBlockSize:]

	padded, err := crypto.AESDecryptCBC(aesKey, iv, ciphertext)
	if err != nil {
		return nil, nil, opError("Unseal", ErrMalformed)
	}

	info, n, err := DecodePCRInfo(padded)
	if err != nil {
		zeroizeBytes(padded)
		return nil, nil, opError("Unseal", ErrMalformed)
	}
	if info.Selection.SizeOfSelect > maxSelectionBytes {
		// A selection wider than the 24-register bank can address is a
		// decoding defect, not a too-large index: reject the structure
		// itself rather than naming a specific out-of-range PCR.
		zeroizeBytes(padded)
		return nil, nil, opError("Unseal", ErrMalformed)
	}
	if n+4 > len(padded) {
		zeroizeBytes(padded)
		return nil, nil, opError("Unseal", ErrMalformed)
	}
	plaintextLen := binary.BigEndian.Uint32(padded[n:])
	n += 4
	if n+int(plaintextLen) > len(padded) {
		zeroizeBytes(padded)
		return nil, nil, opError("Unseal", ErrMalformed)
	}

	if info.Selection.SizeOfSelect > 0 {
		current, cerr := bank.CurrentCompositeHash(crypto, info.Selection)
		if cerr != nil {
			zeroizeBytes(padded)
			return nil, nil, opError("Unseal", ErrMalformed)
		}
		if subtle.ConstantTimeCompare(current[:], info.DigestAtRelease[:]) != 1 {
			zeroizeBytes(padded)
			return nil, nil, opError("Unseal", ErrPCRMismatch)
		}
	}

	out := make([]byte, plaintextLen)
	copy(out, padded[n:n+int(plaintextLen)])
	zeroizeBytes(padded)

	if info.Selection.SizeOfSelect > 0 {
		creation := info.DigestAtCreation
		return out, &creation, nil
	}
	return out, nil, nil
}
