// Package signing implements the secp256k1 signatures used to authenticate callers.
//
// Signatures use the 65 byte r || s || v layout with v in {27, 28} over a
// personal-message digest: keccak256("\x19Ethereum Signed Message:\n32" || hash).
// Addresses are the last 20 bytes of keccak256 of the uncompressed public key.
package signing

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"
)

const (
	// SignatureLength is the size of an r || s || v signature
	SignatureLength = 65
	// AddressLength is the size of an address in bytes
	AddressLength = 20
	// CompressedPubKeyLength is the only accepted public key encoding
	CompressedPubKeyLength = secp256k1.PubKeyBytesLenCompressed

	personalPrefix = "\x19Ethereum Signed Message:\n32"
	// compactMagic is the recovery code offset used by compact signatures
	compactMagic = 27
)

// Errors returned by the package
var (
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidAddress   = errors.New("invalid address")
	ErrInvalidKey       = errors.New("invalid private key")
)

// Keccak256 hashes the concatenation of data
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// PersonalDigest wraps a 32 byte hash with the personal-message prefix
func PersonalDigest(hash []byte) []byte {
	return Keccak256([]byte(personalPrefix), hash)
}

// TakeDigest is the digest a worker signs to take or apply for a job.
// It commits to the job revision (event count) and the job id, each encoded as uint256.
func TakeDigest(revision, jobID uint64) []byte {
	var packed [64]byte
	binary.BigEndian.PutUint64(packed[24:32], revision)
	binary.BigEndian.PutUint64(packed[56:64], jobID)
	return PersonalDigest(Keccak256(packed[:]))
}

// RequestDigest is the digest signed over a raw API request body
func RequestDigest(body []byte) []byte {
	return PersonalDigest(Keccak256(body))
}

// Sign produces an r || s || v signature of digest
func Sign(key *secp256k1.PrivateKey, digest []byte) []byte {
	compact := ecdsa.SignCompact(key, digest, false)
	sig := make([]byte, SignatureLength)
	copy(sig, compact[1:])
	sig[64] = compact[0]
	return sig
}

// Recover returns the address that produced sig over digest
func Recover(digest, sig []byte) (string, error) {
	if len(sig) != SignatureLength {
		return "", fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSignature, SignatureLength, len(sig))
	}
	v := sig[64]
	if v < compactMagic {
		v += compactMagic
	}
	if v != compactMagic && v != compactMagic+1 {
		return "", fmt.Errorf("%w: bad recovery id %d", ErrInvalidSignature, sig[64])
	}

	compact := make([]byte, SignatureLength)
	compact[0] = v
	copy(compact[1:], sig[:64])

	pub, _, err := ecdsa.RecoverCompact(compact, digest)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return AddressFromPubKey(pub), nil
}

// AddressFromPubKey derives the lowercase 0x-prefixed address of a public key
func AddressFromPubKey(pub *secp256k1.PublicKey) string {
	uncompressed := pub.SerializeUncompressed()
	hash := Keccak256(uncompressed[1:])
	return "0x" + hex.EncodeToString(hash[len(hash)-AddressLength:])
}

// NormalizeAddress validates a hex address and returns it lowercased with the 0x prefix
func NormalizeAddress(addr string) (string, error) {
	s := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(addr), "0x"), "0X")
	if len(s) != AddressLength*2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	return "0x" + strings.ToLower(s), nil
}

// ParsePrivateKey decodes a hex encoded 32 byte private key
func ParsePrivateKey(s string) (*secp256k1.PrivateKey, error) {
	raw, err := DecodeHex(s)
	if err != nil || len(raw) != secp256k1.PrivKeyBytesLen {
		return nil, ErrInvalidKey
	}
	return secp256k1.PrivKeyFromBytes(raw), nil
}

// GenerateKey creates a new random private key
func GenerateKey() (*secp256k1.PrivateKey, error) {
	return secp256k1.GeneratePrivateKey()
}

// CompressedPubKey returns the 33 byte public key of key
func CompressedPubKey(key *secp256k1.PrivateKey) []byte {
	return key.PubKey().SerializeCompressed()
}

// DecodeHex decodes an optionally 0x-prefixed hex string
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	return hex.DecodeString(s)
}

// EncodeHex encodes b as a 0x-prefixed hex string
func EncodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
