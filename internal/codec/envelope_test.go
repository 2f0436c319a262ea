package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/einvoice-clearance/internal/codec"
	"github.com/rezonia/einvoice-clearance/internal/model"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	// includes every byte value, so the round trip proves byte fidelity
	raw := make([]byte, 256)
	for i := range raw {
		raw[i] = byte(i)
	}

	encoded := codec.EncodeEnvelope(raw)
	decoded, err := codec.DecodeEnvelope(encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}

func TestDecodeEnvelope_Invalid(t *testing.T) {
	_, err := codec.DecodeEnvelope("!!! not base64 !!!")
	require.Error(t, err)

	var encErr *model.EncodingError
	require.ErrorAs(t, err, &encErr)
}

func TestComputeHash_Deterministic(t *testing.T) {
	doc := []byte("<Invoice><cbc:ID>INV-1</cbc:ID></Invoice>")

	h1 := codec.ComputeHash(doc)
	h2 := codec.ComputeHash(doc)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 44) // base64 of a 32-byte digest
}

func TestVerifyHash(t *testing.T) {
	doc := []byte("<Invoice><cbc:ID>INV-1</cbc:ID></Invoice>")
	digest := codec.ComputeHash(doc)

	assert.True(t, codec.VerifyHash(doc, digest))

	// a single flipped byte must break the binding
	tampered := append([]byte(nil), doc...)
	tampered[10] ^= 0x01
	assert.False(t, codec.VerifyHash(tampered, digest))

	assert.False(t, codec.VerifyHash(doc, "bogus-digest"))
}

func TestNewEnvelope(t *testing.T) {
	raw := []byte("<Invoice/>")
	qr := []byte{0x01, 0x02, 0x03}

	env := codec.NewEnvelope(raw, qr)
	require.NotNil(t, env)
	assert.Equal(t, raw, env.Raw)
	assert.Equal(t, qr, env.QR)
	assert.Equal(t, codec.EncodeEnvelope(raw), env.Base64)
	assert.True(t, codec.VerifyHash(raw, env.Hash))

	decoded, err := codec.DecodeEnvelope(env.Base64)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}
