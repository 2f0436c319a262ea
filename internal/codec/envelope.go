// Package codec derives and reconciles the artifacts produced at lifecycle
// transitions: the Base64 envelope wrapping the signed document and the
// SHA-256 digest that binds a submission payload to its document bytes.
package codec

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	"github.com/rezonia/einvoice-clearance/internal/model"
)

// ComputeHash returns the SHA-256 digest of b, encoded as standard Base64.
func ComputeHash(b []byte) string {
	sum := sha256.Sum256(b)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// VerifyHash reports whether claimedDigest matches the SHA-256 digest of b.
func VerifyHash(b []byte, claimedDigest string) bool {
	computed := ComputeHash(b)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(claimedDigest)) == 1
}

// EncodeEnvelope wraps document bytes in a standard Base64 envelope with no
// line wrapping.
func EncodeEnvelope(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeEnvelope unwraps a Base64 envelope back to the exact document bytes.
func DecodeEnvelope(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, model.NewEncodingError("invalid base64 envelope", err)
	}
	return b, nil
}

// NewEnvelope freezes document bytes into an artifact envelope together with
// the derived Base64 form, digest and the signer-provided QR payload.
func NewEnvelope(raw, qr []byte) *model.Envelope {
	return &model.Envelope{
		Raw:    raw,
		Base64: EncodeEnvelope(raw),
		Hash:   ComputeHash(raw),
		QR:     qr,
	}
}
