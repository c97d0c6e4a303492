package utpm

import (
	"context"
	"crypto/rsa"
	"io"
	"sync/atomic"

	"github.com/openutpm/utpm-go/pkg/utpm/logging"
)

// InstanceConfig supplies the key material and optional overrides a host
// provides when creating an Instance. Keys are set once and never mutated by
// core operations; Close zeroizes them.
type InstanceConfig struct {
	// HMACKey authenticates sealed blobs (HMAC-SHA1).
	HMACKey [HashSize]byte

	// AESKey encrypts sealed blobs (AES-128-CBC).
	AESKey [AESKeySize]byte

	// RSAKey signs quotes (RSA-PKCS#1 v1.5 over SHA-1). Required.
	RSAKey *rsa.PrivateKey

	// Logger receives diagnostic events. Defaults to a no-op logger.
	Logger logging.Logger

	// Rand is the entropy source used for IV generation. Defaults to
	// crypto/rand.Reader.
	Rand io.Reader

	// Crypto overrides the standard-library Crypto facade. Intended for
	// tests that need deterministic primitives; leave nil in production.
	Crypto Crypto
}

// Instance is one µTPM: a PCR bank plus HMAC, AES, and RSA key material,
// exclusively owned and accessed by at most one goroutine at a time.
type Instance struct {
	bank   *Bank
	crypto Crypto
	logger logging.Logger

	hmacKey [HashSize]byte
	aesKey  [AESKeySize]byte
	rsaKey  *rsa.PrivateKey

	closed atomic.Bool
}

// New constructs an Instance with a zero PCR bank and the supplied key
// material. The host is expected to call this once per tenant/guest.
func New(cfg InstanceConfig) (*Instance, error) {
	if cfg.RSAKey == nil {
		return nil, opError("New", ErrBadParam)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Noop()
	}

	c := cfg.Crypto
	if c == nil {
		c = newDefaultCrypto(cfg.Rand)
	}

	inst := &Instance{
		bank:    NewBank(),
		crypto:  c,
		logger:  logger,
		hmacKey: cfg.HMACKey,
		aesKey:  cfg.AESKey,
		rsaKey:  cfg.RSAKey,
	}
	logger.Debug(context.Background(), "utpm instance created")
	return inst, nil
}

// Close zeroizes this Instance's key material. It is idempotent; subsequent
// operations on a closed Instance fail with ErrInternal.
func (inst *Instance) Close() error {
	if !inst.closed.CompareAndSwap(false, true) {
		return nil
	}
	zeroizeBytes(inst.hmacKey[:])
	zeroizeBytes(inst.aesKey[:])
	if inst.rsaKey != nil {
		zeroizeRSAPrivateKey(inst.rsaKey)
	}
	inst.logger.Debug(context.Background(), "utpm instance closed")
	return nil
}

func (inst *Instance) checkOpen(op string) error {
	if inst.closed.Load() {
		return opError(op, ErrInternal)
	}
	return nil
}

// PCRRead returns the current value of PCR index.
func (inst *Instance) PCRRead(index int) (PCRValue, error) {
	if err := inst.checkOpen("PCRRead"); err != nil {
		return PCRValue{}, err
	}
	v, err := inst.bank.Read(index)
	if err != nil {
		return PCRValue{}, opError("PCRRead", err)
	}
	return v, nil
}

// Extend mutates PCR index to SHA1(pcr || measurement). This is permanent:
// there is no operation that resets a PCR.
func (inst *Instance) Extend(index int, measurement PCRValue) error {
	if err := inst.checkOpen("Extend"); err != nil {
		return err
	}
	if err := inst.bank.Extend(inst.crypto, index, measurement); err != nil {
		return opError("Extend", err)
	}
	return nil
}

// CurrentCompositeHash returns the composite hash the bank currently has for
// sel. Callers use this to compute the digestAtRelease value they must pass
// to Seal when binding a blob to a PCR-release policy; sel must select at
// least one PCR.
func (inst *Instance) CurrentCompositeHash(sel Selection) (PCRValue, error) {
	if err := inst.checkOpen("CurrentCompositeHash"); err != nil {
		return PCRValue{}, err
	}
	v, err := inst.bank.CurrentCompositeHash(inst.crypto, sel)
	if err != nil {
		return PCRValue{}, opError("CurrentCompositeHash", err)
	}
	return v, nil
}

// Seal produces a sealed blob binding plaintext to this Instance's keys and,
// if sel selects any PCRs, to digestAtRelease. digestAtRelease may be nil
// only when sel.SizeOfSelect == 0.
func (inst *Instance) Seal(sel Selection, digestAtRelease *PCRValue, plaintext []byte) ([]byte, error) {
	if err := inst.checkOpen("Seal"); err != nil {
		return nil, err
	}
	return seal(inst.crypto, inst.bank, sel, digestAtRelease, plaintext, inst.hmacKey, inst.aesKey)
}

// Unseal recovers the plaintext and digestAtCreation (nil if the blob was
// sealed without PCR binding) from a sealed blob. On INTEGRITY_FAILURE or
// PCR_MISMATCH, no plaintext byte is ever returned.
func (inst *Instance) Unseal(blob []byte) ([]byte, *PCRValue, error) {
	if err := inst.checkOpen("Unseal"); err != nil {
		return nil, nil, err
	}
	return unseal(inst.crypto, inst.bank, blob, inst.hmacKey, inst.aesKey)
}

// Quote writes composite || u32be(RSAKeySize) || sig into outBuf and returns
// the number of bytes written. sel must select at least one PCR.
func (inst *Instance) Quote(sel Selection, externalNonce Nonce, outBuf []byte) (int, error) {
	if err := inst.checkOpen("Quote"); err != nil {
		return 0, err
	}
	return quote(inst.crypto, inst.bank, sel, externalNonce, inst.rsaKey, outBuf)
}

// QuoteAppend is the allocating convenience form of Quote.
func (inst *Instance) QuoteAppend(sel Selection, externalNonce Nonce) ([]byte, error) {
	if err := inst.checkOpen("Quote"); err != nil {
		return nil, err
	}
	return quoteAppend(inst.crypto, inst.bank, sel, externalNonce, inst.rsaKey)
}

// Rand returns n bytes drawn from the Instance's configured entropy source.
func (inst *Instance) Rand(n int) ([]byte, error) {
	if err := inst.checkOpen("Rand"); err != nil {
		return nil, err
	}
	b, err := inst.crypto.RandomBytes(n)
	if err != nil {
		return nil, opError("Rand", err)
	}
	return b, nil
}
