package alert

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/mitanuriel/agentSecOps-Guardian/internal/scanner"
)

const (
	maxRetries = 3
	baseDelay  = 500 * time.Millisecond
	maxAge     = 10 * time.Minute
	nonceSize  = 32
)

// For testing purposes
var testNonce = ""

// Webhook delivers signed scan notifications to an HTTP endpoint.
type Webhook struct {
	url      string
	secret   []byte
	client   *http.Client
	nonces   map[string]time.Time
	nonceMux sync.RWMutex
}

// NewWebhook creates a webhook sender for the given endpoint. The secret is
// used to HMAC-sign every payload.
func NewWebhook(url string, secret string) *Webhook {
	return &Webhook{
		url:    url,
		secret: []byte(secret),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		nonces: make(map[string]time.Time),
	}
}

// Payload is the notification body sent after a scan.
type Payload struct {
	Source      string           `json:"source"`
	Summary     string           `json:"summary"`
	Metadata    scanner.Metadata `json:"metadata"`
	Findings    scanner.Findings `json:"findings"`
	GeneratedAt time.Time        `json:"generated_at"`
	Nonce       string           `json:"nonce"`
	Sign        *Signature       `json:"signature,omitempty"`
}

// Signature is the HMAC signature attached to a payload.
type Signature struct {
	Algorithm string `json:"alg"`
	Value     string `json:"sig"`
}

// NewPayload builds a notification payload from a scan result.
func NewPayload(source string, res scanner.Result) *Payload {
	return &Payload{
		Source:      source,
		Summary:     fmt.Sprintf("%d findings in %s", res.Findings.Total(), source),
		Metadata:    res.Metadata,
		Findings:    res.Findings,
		GeneratedAt: time.Now(),
	}
}

func (w *Webhook) generateNonce() (string, error) {
	if testNonce != "" {
		return testNonce, nil
	}
	nonceBytes := make([]byte, nonceSize)
	if _, err := rand.Read(nonceBytes); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return hex.EncodeToString(nonceBytes), nil
}

func (w *Webhook) isNonceUsed(nonce string) bool {
	w.nonceMux.RLock()
	timestamp, exists := w.nonces[nonce]
	w.nonceMux.RUnlock()

	if !exists {
		return false
	}

	if time.Since(timestamp) > maxAge {
		w.nonceMux.Lock()
		delete(w.nonces, nonce)
		w.nonceMux.Unlock()
		return false
	}

	return true
}

func (w *Webhook) cleanupNonces() {
	w.nonceMux.Lock()
	defer w.nonceMux.Unlock()

	now := time.Now()
	for nonce, timestamp := range w.nonces {
		if now.Sub(timestamp) > maxAge {
			delete(w.nonces, nonce)
		}
	}
}

func (w *Webhook) storeNonce(nonce string, timestamp time.Time) {
	w.nonceMux.Lock()
	w.nonces[nonce] = timestamp
	w.nonceMux.Unlock()
}

// Send signs the payload and posts it, retrying transient failures with a
// linear backoff. A nonce seen before within the replay window is rejected.
func (w *Webhook) Send(payload *Payload) error {
	if time.Since(payload.GeneratedAt) > maxAge {
		return fmt.Errorf("payload timestamp expired")
	}

	nonce, err := w.generateNonce()
	if err != nil {
		return err
	}
	payload.Nonce = nonce

	signature, err := w.signPayload(payload)
	if err != nil {
		return fmt.Errorf("failed to sign payload: %w", err)
	}
	payload.Sign = signature

	if w.isNonceUsed(nonce) {
		return fmt.Errorf("replay attack detected")
	}
	w.storeNonce(nonce, payload.GeneratedAt)

	go w.cleanupNonces()

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			time.Sleep(time.Duration(i) * baseDelay)
		}

		req, err := http.NewRequest(http.MethodPost, w.url, bytes.NewReader(jsonPayload))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := w.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

// signPayload computes the HMAC-SHA256 signature over the payload with the
// signature field cleared.
func (w *Webhook) signPayload(payload *Payload) (*Signature, error) {
	origSig := payload.Sign
	payload.Sign = nil

	data, err := json.Marshal(payload)
	payload.Sign = origSig
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	mac := hmac.New(sha256.New, w.secret)
	mac.Write(data)

	return &Signature{
		Algorithm: "HMAC-SHA256",
		Value:     base64.StdEncoding.EncodeToString(mac.Sum(nil)),
	}, nil
}

// verifySignature checks a received payload against the shared secret.
func (w *Webhook) verifySignature(payload *Payload) error {
	if time.Since(payload.GeneratedAt) > maxAge {
		return fmt.Errorf("timestamp expired")
	}

	if payload.Sign == nil {
		return fmt.Errorf("no signature provided")
	}
	if payload.Sign.Algorithm != "HMAC-SHA256" {
		return fmt.Errorf("unsupported signature algorithm: %s", payload.Sign.Algorithm)
	}

	origSig := payload.Sign
	payload.Sign = nil

	data, err := json.Marshal(payload)
	payload.Sign = origSig
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	mac := hmac.New(sha256.New, w.secret)
	mac.Write(data)
	expectedSig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(origSig.Value), []byte(expectedSig)) {
		return fmt.Errorf("signature verification failed")
	}

	return nil
}
