package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DoJSON sends a JSON request. A nil payload sends no body.
// If token is non-empty, it is passed as auth cookie.
func DoJSON(ctx context.Context, method, url string, payload any, token string) (*http.Response, []byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Cookie", "auth_token="+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	return resp, respBody, nil
}

// PostJSON is DoJSON with POST.
func PostJSON(ctx context.Context, url string, payload any, token string) (*http.Response, []byte, error) {
	return DoJSON(ctx, http.MethodPost, url, payload, token)
}

// Endpoint joins the server URL and a path.
func Endpoint(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

type errorBody struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	Details string `json:"details"`
}

// ServerError turns a non-2xx response into an error with the server's message.
func ServerError(status int, body []byte) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || eb.Error == "" {
		return fmt.Errorf("server status %d: %s", status, strings.TrimSpace(string(body)))
	}
	msg := fmt.Sprintf("server status %d: %s", status, eb.Error)
	if eb.Kind != "" {
		msg += " [" + eb.Kind + "]"
	}
	if eb.Details != "" {
		msg += ": " + eb.Details
	}
	return fmt.Errorf("%s", msg)
}
