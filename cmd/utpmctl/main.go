// Command utpmctl is a small smoke-test driver for the utpm engine: it spins
// up one Instance with freshly generated key material, exercises extend,
// seal/unseal, and quote, and reports the outcome. It is not a production
// hypervisor integration; real hosts construct Instances directly via
// package utpm.
package main

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"log"

	"github.com/openutpm/utpm-go/pkg/utpm"
)

func main() {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		log.Fatalf("generate rsa key: %v", err)
	}

	var hmacKey [utpm.HashSize]byte
	var aesKey [utpm.AESKeySize]byte
	if _, err := rand.Read(hmacKey[:]); err != nil {
		log.Fatalf("generate hmac key: %v", err)
	}
	if _, err := rand.Read(aesKey[:]); err != nil {
		log.Fatalf("generate aes key: %v", err)
	}

	inst, err := utpm.New(utpm.InstanceConfig{
		HMACKey: hmacKey,
		AESKey:  aesKey,
		RSAKey:  rsaKey,
	})
	if err != nil {
		log.Fatalf("new instance: %v", err)
	}
	defer func() {
		if cerr := inst.Close(); cerr != nil {
			log.Printf("close error: %v", cerr)
		}
	}()

	var measurement [utpm.HashSize]byte
	copy(measurement[:], []byte("utpmctl smoke measurement"))
	if err := inst.Extend(0, measurement); err != nil {
		log.Fatalf("extend: %v", err)
	}

	sel, err := utpm.NewSelection(0)
	if err != nil {
		log.Fatalf("new selection: %v", err)
	}

	digestAtRelease, err := inst.CurrentCompositeHash(sel)
	if err != nil {
		log.Fatalf("current composite hash: %v", err)
	}

	blob, err := inst.Seal(sel, &digestAtRelease, []byte("hello from utpmctl"))
	if err != nil {
		log.Fatalf("seal: %v", err)
	}
	fmt.Printf("sealed blob: %d bytes\n", len(blob))

	plaintext, digestAtCreation, err := inst.Unseal(blob)
	if err != nil {
		log.Fatalf("unseal: %v", err)
	}
	fmt.Printf("unsealed: %q (digestAtCreation present: %v)\n", plaintext, digestAtCreation != nil)

	var nonce utpm.Nonce
	copy(nonce[:], []byte("utpmctl smoke nonce!"))
	quoteBytes, err := inst.QuoteAppend(sel, nonce)
	if err != nil {
		log.Fatalf("quote: %v", err)
	}
	fmt.Printf("quote: %d bytes\n", len(quoteBytes))
}
