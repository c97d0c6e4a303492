// Package utpm implements a software-emulated micro Trusted Platform Module
// (µTPM): a per-tenant, TPM 1.2-compatible command engine providing PCR
// measurement, PCR-sealed storage, and signed quotes.
//
// # Architecture
//
// Each tenant or guest workload gets its own Instance, constructed with its
// own HMAC, AES, and RSA key material. An Instance owns a PCR Bank (24
// registers, all-zero at construction) and dispatches the operations below;
// it holds no state shared with any other Instance.
//
//	inst, err := utpm.New(utpm.InstanceConfig{
//		HMACKey: hmacKey,
//		AESKey:  aesKey,
//		RSAKey:  rsaPrivateKey,
//	})
//	defer inst.Close()
//
//	if err := inst.Extend(0, measurement); err != nil { ... }
//	blob, err := inst.Seal(sel, &digestAtRelease, plaintext)
//	pt, digestAtCreation, err := inst.Unseal(blob)
//	quote, err := inst.QuoteAppend(sel, nonce)
//
// # Wire compatibility
//
// The PCR selection, PCR info, PCR composite, and quote info structures are
// encoded byte-for-byte as the TPM 1.2 specification defines them (big-endian
// length/count fields) so that quotes produced here verify under any
// TPM-1.2-compatible remote attester. The single exception is the plaintext
// length embedded inside a sealed blob's ciphertext, which never crosses a
// trust boundary unencrypted and is therefore not required to match the
// historical on-wire TPM format (see legacy.go for the historical format this
// package can still decode).
//
// # Security considerations
//
// - SHA-1, AES-128, and RSA-2048 are fixed by the sealed-blob and quote wire
// formats; this package intentionally does not offer algorithm agility.
//   - MAC verification and PCR-release comparisons are constant-time
//     (crypto/subtle). On failure, Unseal never returns or logs any byte of the
//     decrypted plaintext.
//   - Extend is irreversible: there is no operation that resets a PCR once the
//     Instance has performed an Extend against it. This is what makes a sealed
//     blob's PCR-release policy non-forgeable.
//   - Instance.Close zeroizes all key material. Scratch buffers holding
//     plaintext or key-derived bytes are zeroized before they go out of scope.
//
// # Concurrency
//
// An Instance is single-threaded cooperative: it expects to service one
// operation at a time and performs no internal locking. A host that dispatches
// many Instances across goroutines must ensure each Instance is accessed by at
// most one goroutine at a time; Instances share no state with each other.
package utpm
