package utpm

// Fixed sizes dictated by the TPM 1.2 wire format and the sealed-blob layout.
// These are frozen by spec: the engine does not offer algorithm agility.
const (
	// PCRCount is the number of PCR registers in the bank.
	PCRCount = 24

	// HashSize is the SHA-1 digest size in bytes.
	HashSize = 20

	// AESBlockSize is the AES block size in bytes.
	AESBlockSize = 16

	// AESKeySize is the AES-128 key size in bytes.
	AESKeySize = 16

	// RSAKeySize is the RSA-2048 signature size in bytes.
	RSAKeySize = 256

	// NonceSize is the size in bytes of an external quote nonce.
	NonceSize = 20
)

// PCRValue is a 20-byte PCR digest.
type PCRValue [HashSize]byte

// Nonce is a 20-byte external quote nonce, supplied by the verifier to
// prevent replay.
type Nonce [NonceSize]byte
