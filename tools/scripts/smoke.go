// Package main provides a CI-friendly smoke test for a running skygate server.
//
// It validates:
//   - liveness
//   - register then login and token issue
//   - /me with the issued token and 403 without it
//   - optionally the producer: /dashboard and the /producer/stream WebSocket
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
)

const maxReadBytes = 1 << 20 // 1MiB

type streamEvent struct {
	Type     string `json:"type"`
	Stream   string `json:"stream"`
	Text     string `json:"text"`
	Outcome  string `json:"outcome"`
	ExitCode *int   `json:"exit_code"`
	Error    string `json:"error"`
}

func main() {
	var (
		baseURL  = flag.String("url", "http://127.0.0.1:3000", "Server base URL")
		origin   = flag.String("origin", "http://localhost", "Origin header to send")
		email    = flag.String("email", "", "Identifier to register (default: random)")
		password = flag.String("password", "Smoke-Test1", "Password satisfying the policy")
		producer = flag.Bool("producer", false, "Also exercise /dashboard and /producer/stream")
		timeout  = flag.Duration("timeout", 7*time.Second, "Per-step timeout")
		runWait  = flag.Duration("run-timeout", 2*time.Minute, "Timeout for producer steps")
		verbose  = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	base, err := validateBaseURL(*baseURL)
	if err != nil {
		fatalf("invalid -url: %v", err)
	}
	if *email == "" {
		*email = fmt.Sprintf("smoke-%d@example.com", time.Now().UnixNano())
	}

	c := &client{base: base, origin: *origin, http: &http.Client{}, verbose: *verbose}
	root := context.Background()

	c.mustStatus(root, http.MethodGet, "/live", nil, "", http.StatusOK, *timeout)

	creds := map[string]string{"email": *email, "password": *password}
	c.mustStatus(root, http.MethodPost, "/register", creds, "", http.StatusCreated, *timeout)
	c.mustStatus(root, http.MethodPost, "/register", creds, "", http.StatusBadRequest, *timeout)

	body := c.mustStatus(root, http.MethodPost, "/login", creds, "", http.StatusOK, *timeout)
	tok, _ := body["token"].(string)
	if strings.TrimSpace(tok) == "" {
		fatalf("login response missing token: %v", body)
	}

	c.mustStatus(root, http.MethodGet, "/me", nil, "", http.StatusForbidden, *timeout)
	me := c.mustStatus(root, http.MethodGet, "/me", nil, tok, http.StatusOK, *timeout)
	if me["email"] != *email {
		fatalf("/me returned %v, want email %q", me["email"], *email)
	}

	if *producer {
		dash := c.mustStatus(root, http.MethodGet, "/dashboard", nil, tok, http.StatusOK, *runWait)
		if c.verbose {
			fmt.Printf("dashboard: %v\n", dash["message"])
		}
		mustStream(root, base, *origin, tok, *runWait, *verbose)
	}

	fmt.Println("OK: skygate smoke test passed")
}

type client struct {
	base    *url.URL
	origin  string
	http    *http.Client
	verbose bool
}

func (c *client) mustStatus(parent context.Context, method, path string, in any, bearer string, want int, stepTimeout time.Duration) map[string]any {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	var rd io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			fatalf("marshal %s body: %v", path, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), rd)
	if err != nil {
		fatalf("build %s %s: %v", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.origin != "" {
		req.Header.Set("Origin", c.origin)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReadBytes))
	if err != nil {
		fatalf("%s %s: read body: %v", method, path, err)
	}

	out := map[string]any{}
	if len(bytes.TrimSpace(raw)) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	if resp.StatusCode != want {
		fatalf("%s %s: status=%d want=%d body=%s", method, path, resp.StatusCode, want, strings.TrimSpace(string(raw)))
	}
	if c.verbose {
		fmt.Printf("%s %s -> %d\n", method, path, resp.StatusCode)
	}
	return out
}

func mustStream(parent context.Context, base *url.URL, origin, tok string, runTimeout time.Duration, verbose bool) {
	ctx, cancel := context.WithTimeout(parent, runTimeout)
	defer cancel()

	wsURL := *base.JoinPath("/producer/stream")
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}

	h := http.Header{}
	h.Set("Authorization", "Bearer "+tok)
	if strings.TrimSpace(origin) != "" {
		h.Set("Origin", origin)
	}

	conn, resp, err := websocket.Dial(ctx, wsURL.String(), &websocket.DialOptions{HTTPHeader: h})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		fatalf("stream connect: %v", err)
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()
	conn.SetReadLimit(maxReadBytes)

	lines := 0
	for {
		mt, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				fatalf("stream closed before result event")
			}
			fatalf("stream read: %v", err)
		}
		if mt != websocket.MessageText {
			continue
		}

		var ev streamEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			fatalf("stream event: %v", err)
		}

		switch ev.Type {
		case "line":
			lines++
			if verbose {
				fmt.Printf("[%s] %s\n", ev.Stream, ev.Text)
			}
		case "result":
			if err := checkResult(ev); err != nil {
				fatalf("stream result: %v", err)
			}
			if verbose {
				fmt.Printf("stream result: outcome=%s lines=%d\n", ev.Outcome, lines)
			}
			return
		default:
			fatalf("unexpected stream event type %q", ev.Type)
		}
	}
}

func checkResult(ev streamEvent) error {
	if ev.Error != "" {
		return errors.New(ev.Error)
	}
	switch ev.Outcome {
	case "ready", "completed_without_marker":
		return nil
	case "failed":
		code := -1
		if ev.ExitCode != nil {
			code = *ev.ExitCode
		}
		return fmt.Errorf("producer failed with exit code %d", code)
	default:
		return fmt.Errorf("unknown outcome %q", ev.Outcome)
	}
}

func validateBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return nil, errors.New("missing host")
	}
	return u, nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
