package e2e

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mitanuriel/agentSecOps-Guardian/internal/alert"
)

// TestHelper wires up what an end-to-end test needs: a scratch directory,
// a fake completion upstream and a webhook sink.
type TestHelper struct {
	t       *testing.T
	workDir string
}

// NewTestHelper creates a new test helper.
func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{
		t:       t,
		workDir: t.TempDir(),
	}
}

// WriteInput writes a scan input file into the work directory and returns
// its path.
func (h *TestHelper) WriteInput(name, content string) string {
	h.t.Helper()

	path := filepath.Join(h.workDir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		h.t.Fatalf("failed to write input file: %v", err)
	}
	return path
}

// StartCompletionServer fakes the Mistral chat completions endpoint,
// answering every request with the given assistant message content.
func (h *TestHelper) StartCompletionServer(content string) string {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		body := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		}
		json.NewEncoder(w).Encode(body)
	}))
	h.t.Cleanup(srv.Close)
	return srv.URL
}

// StartWebhookSink starts a server recording webhook deliveries. The
// returned function snapshots the payloads received so far.
func (h *TestHelper) StartWebhookSink() (string, func() []alert.Payload) {
	var (
		mu       sync.Mutex
		payloads []alert.Payload
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p alert.Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		payloads = append(payloads, p)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	h.t.Cleanup(srv.Close)

	snapshot := func() []alert.Payload {
		mu.Lock()
		defer mu.Unlock()
		return append([]alert.Payload(nil), payloads...)
	}
	return srv.URL, snapshot
}

// FreePort reserves an ephemeral port and releases it for immediate reuse.
func (h *TestHelper) FreePort() int {
	h.t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		h.t.Fatalf("failed to reserve port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// WaitForHealth polls the health endpoint until the service answers or the
// deadline passes.
func (h *TestHelper) WaitForHealth(baseURL string) {
	h.t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	h.t.Fatal("service did not become healthy in time")
}
