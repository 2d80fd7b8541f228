package codec

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/text/unicode/norm"
)

// StoragePrefix is the fixed-width marker carried by every stored encoded
// fingerprint. Decode requires it; Encode always emits it.
const StoragePrefix = `\x`

// DigestSize is the digest length in bytes (128 bits).
const DigestSize = 16

// Domain prefixes for digest computation. The null-byte separator in
// hashWithDomain prevents domain/data boundary ambiguity.
const (
	domainFingerprint = "audproof/fingerprint/v1"
	domainSourceLink  = "audproof/source-link/v1"
)

// Fingerprint is a raw acoustic fingerprint: the extractor's sequence of
// 32-bit sub-fingerprints.
type Fingerprint []int32

// CodecError reports a malformed encoded form. It is a hard failure of the
// comparison it occurred in, never a classification outcome.
type CodecError struct {
	Reason string
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("codec: %s", e.Reason)
}

// IsCodecError returns true if err is (or wraps) a CodecError.
func IsCodecError(err error) bool {
	var ce *CodecError
	return errors.As(err, &ce)
}

// Encode maps a raw fingerprint to its storable encoded form and its
// 128-bit digest. Deterministic and pure: bit-identical input yields
// bit-identical output.
func Encode(fp Fingerprint) (encoded string, digest string, err error) {
	if len(fp) == 0 {
		return "", "", &CodecError{Reason: "cannot encode empty fingerprint"}
	}

	canonical := canonicalBytes(fp)
	encoded = StoragePrefix + hex.EncodeToString(canonical)
	digest = hashWithDomain(domainFingerprint, canonical)
	return encoded, digest, nil
}

// Decode is the inverse of Encode's encoding step. The storage prefix is
// stripped before the payload is interpreted; a missing or malformed prefix
// is a CodecError, not a silent pass-through.
func Decode(encoded string) (Fingerprint, error) {
	if !strings.HasPrefix(encoded, StoragePrefix) {
		return nil, &CodecError{Reason: fmt.Sprintf("encoded form missing %q storage prefix", StoragePrefix)}
	}

	payload, err := hex.DecodeString(encoded[len(StoragePrefix):])
	if err != nil {
		return nil, &CodecError{Reason: fmt.Sprintf("invalid hex payload: %v", err)}
	}
	if len(payload) == 0 {
		return nil, &CodecError{Reason: "empty payload"}
	}
	if len(payload)%4 != 0 {
		return nil, &CodecError{Reason: fmt.Sprintf("payload length %d is not a multiple of 4", len(payload))}
	}

	fp := make(Fingerprint, len(payload)/4)
	for i := range fp {
		fp[i] = int32(binary.BigEndian.Uint32(payload[i*4 : i*4+4]))
	}
	return fp, nil
}

// LinkDigest computes the 128-bit digest of a provenance link. The link is
// NFC-normalized first so that visually identical links hash identically.
func LinkDigest(link string) string {
	return hashWithDomain(domainSourceLink, []byte(norm.NFC.String(link)))
}

// canonicalBytes serializes a fingerprint as 4-byte big-endian words.
func canonicalBytes(fp Fingerprint) []byte {
	buf := make([]byte, len(fp)*4)
	for i, v := range fp {
		binary.BigEndian.PutUint32(buf[i*4:], uint32(v))
	}
	return buf
}

// hashWithDomain computes a 128-bit BLAKE3 hash over domain + 0x00 + data,
// hex encoded (32 characters).
func hashWithDomain(domain string, data []byte) string {
	h := blake3.New()
	_, _ = h.Write([]byte(domain))
	_, _ = h.Write([]byte{0x00})
	_, _ = h.Write(data)

	out := make([]byte, DigestSize)
	_, _ = h.Digest().Read(out)
	return hex.EncodeToString(out)
}
