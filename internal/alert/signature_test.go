package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureVerification(t *testing.T) {
	wh := NewWebhook("http://example.com", "test-secret")

	testNonce = "fixed-nonce"
	defer func() { testNonce = "" }()

	payload := testPayload()
	payload.Nonce = testNonce

	signature, err := wh.signPayload(payload)
	require.NoError(t, err)
	payload.Sign = signature

	assert.Equal(t, "HMAC-SHA256", signature.Algorithm)
	assert.NoError(t, wh.verifySignature(payload))
}

func TestSignatureVerification_Tampered(t *testing.T) {
	wh := NewWebhook("http://example.com", "test-secret")

	payload := testPayload()
	payload.Nonce = "fixed-nonce"

	signature, err := wh.signPayload(payload)
	require.NoError(t, err)
	payload.Sign = signature

	payload.Summary = "tampered summary"

	err = wh.verifySignature(payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signature verification failed")
}

func TestSignatureVerification_WrongSecret(t *testing.T) {
	sender := NewWebhook("http://example.com", "test-secret")
	receiver := NewWebhook("http://example.com", "other-secret")

	payload := testPayload()
	payload.Nonce = "fixed-nonce"

	signature, err := sender.signPayload(payload)
	require.NoError(t, err)
	payload.Sign = signature

	err = receiver.verifySignature(payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signature verification failed")
}

func TestSignatureVerification_Expired(t *testing.T) {
	wh := NewWebhook("http://example.com", "test-secret")

	payload := testPayload()
	payload.GeneratedAt = time.Now().Add(-maxAge - time.Second)
	payload.Nonce = "fixed-nonce"

	signature, err := wh.signPayload(payload)
	require.NoError(t, err)
	payload.Sign = signature

	err = wh.verifySignature(payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timestamp expired")
}

func TestSignatureVerification_MissingSignature(t *testing.T) {
	wh := NewWebhook("http://example.com", "test-secret")

	err := wh.verifySignature(testPayload())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no signature provided")
}

func TestSignatureVerification_UnsupportedAlgorithm(t *testing.T) {
	wh := NewWebhook("http://example.com", "test-secret")

	payload := testPayload()
	payload.Sign = &Signature{Algorithm: "HMAC-MD5", Value: "whatever"}

	err := wh.verifySignature(payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported signature algorithm")
}
