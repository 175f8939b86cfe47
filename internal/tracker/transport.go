package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxResultBody = 1 << 20

// FormTransport envía las submissions al panel como application/x-www-form-urlencoded
// y decodifica el ResultEnvelope, cualquiera sea el status HTTP.
type FormTransport struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// NewFormTransport crea un transport contra baseURL (ej. http://localhost:8080).
func NewFormTransport(baseURL, token string, timeout time.Duration) *FormTransport {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FormTransport{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

func (t *FormTransport) Submit(ctx context.Context, sub Submission) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+sub.Path, strings.NewReader(sub.Fields.Encode()))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if t.Token != "" {
		req.Header.Set("Authorization", "Bearer "+t.Token)
	}

	hc := t.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	var res Result
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResultBody)).Decode(&res); err != nil {
		return Result{}, fmt.Errorf("unexpected response from %s: %d", sub.Path, resp.StatusCode)
	}
	return res, nil
}
