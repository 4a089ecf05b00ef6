package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mitanuriel/agentSecOps-Guardian/internal/mistral"
)

const shutdownTimeout = 10 * time.Second

// For testing purposes
var upstreamTimeout = 60 * time.Second

// Options configure the HTTP service.
type Options struct {
	Host        string
	Port        int
	RateLimit   float64 // generate-post requests per second
	UpstreamURL string  // overrides the Mistral API base URL
}

// Server fronts the Mistral post-generation API with validation and rate
// limiting. The caller's API key is passed through per request; the server
// itself holds no credentials.
type Server struct {
	addr     string
	upstream string
	limiter  *rate.Limiter
}

// New creates a server from the given options.
func New(opts Options) *Server {
	limit := opts.RateLimit
	if limit <= 0 {
		limit = 1
	}
	return &Server{
		addr:     fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		upstream: opts.UpstreamURL,
		limiter:  rate.NewLimiter(rate.Limit(limit), 1),
	}
}

// Addr returns the configured bind address.
func (s *Server) Addr() string {
	return s.addr
}

// Handler returns the route table for the service.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /generate-post", s.handleGeneratePost)
	return mux
}

// Run binds the configured address and serves until the context is
// cancelled or a termination signal arrives, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.serve(ctx, listener)
}

func (s *Server) serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{Handler: s.Handler()}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-sigChan:
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

type generatePostRequest struct {
	APIKey string `json:"api_key"`
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGeneratePost(w http.ResponseWriter, r *http.Request) {
	var req generatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.APIKey = strings.TrimSpace(req.APIKey)
	if req.APIKey == "" {
		writeError(w, http.StatusBadRequest, "api_key is required")
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please wait a moment and try again.")
		return
	}

	client, err := mistral.NewClient(mistral.ClientOptions{
		APIKey:  req.APIKey,
		BaseURL: s.upstream,
		Timeout: upstreamTimeout,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	post, err := client.GeneratePost(r.Context(), req.Prompt, req.Model)
	if err != nil {
		status, detail := mapUpstreamError(err)
		writeError(w, status, detail)
		return
	}

	model := req.Model
	if model == "" {
		model = mistral.DefaultPostModel
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"post":     post,
		"model":    model,
		"provider": "mistral",
	})
}

// mapUpstreamError converts a GeneratePost failure into the status code and
// detail message reported to the caller.
func mapUpstreamError(err error) (int, string) {
	var apiErr *mistral.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized:
			return http.StatusUnauthorized, fmt.Sprintf(
				"Invalid API key. Check: 1) Key is correctly copied from Mistral console 2) No extra spaces 3) Key is activated. API response: %s",
				apiErr.Message)
		case http.StatusTooManyRequests:
			return http.StatusTooManyRequests, "Rate limit exceeded. Please wait a moment and try again."
		default:
			return apiErr.StatusCode, fmt.Sprintf("Mistral API error: %s", apiErr.Message)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return http.StatusGatewayTimeout, "Request timeout. The API took too long to respond. Please try again."
	}

	return http.StatusInternalServerError, fmt.Sprintf("Network error: %s", err)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
