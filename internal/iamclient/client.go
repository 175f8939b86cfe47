package iamclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Factory crea clientes autenticados a partir del request entrante del panel.
type Factory struct {
	HTTP       *http.Client
	Verifier   *Verifier
	CookieName string
}

// NewFactory crea una Factory con un http.Client propio (timeout del backend IAM).
func NewFactory(verifier *Verifier, cookieName string, timeout time.Duration) *Factory {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Factory{
		HTTP:       &http.Client{Timeout: timeout},
		Verifier:   verifier,
		CookieName: cookieName,
	}
}

// FromRequest extrae las credenciales del request (Authorization: Bearer o cookie de sesión)
// y devuelve un Client que las reenvía al backend IAM.
func (f *Factory) FromRequest(r *http.Request) *Client {
	return &Client{
		http:      f.HTTP,
		verifier:  f.Verifier,
		token:     TokenFromRequest(r, f.CookieName),
		requestID: r.Header.Get("X-Request-ID"),
	}
}

// TokenFromRequest busca el token de sesión: primero Authorization: Bearer, luego la cookie.
func TokenFromRequest(r *http.Request, cookieName string) string {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(ah) > 7 && strings.EqualFold(ah[:7], "bearer ") {
		return strings.TrimSpace(ah[7:])
	}
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil {
			return strings.TrimSpace(c.Value)
		}
	}
	return ""
}

// Client es el cliente autenticado de un request. No es seguro compartirlo entre requests.
type Client struct {
	http      *http.Client
	verifier  *Verifier
	token     string
	requestID string
	session   *Session
}

// NewClient crea un Client con un token explícito (CLI, tests).
func NewClient(httpClient *http.Client, verifier *Verifier, token string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient, verifier: verifier, token: token}
}

// VerifySession valida la sesión del operador. Debe llamarse antes de Do.
func (c *Client) VerifySession(ctx context.Context) error {
	if c.verifier == nil {
		if c.token == "" {
			return ErrNoSession
		}
		c.session = &Session{Token: c.token}
		return nil
	}
	s, err := c.verifier.Verify(ctx, c.token)
	if err != nil {
		return err
	}
	c.session = s
	return nil
}

// Session devuelve la sesión verificada (nil si VerifySession no fue llamado o falló).
func (c *Client) Session() *Session { return c.session }

// Do emite un request al backend IAM con las credenciales de la sesión.
// body != nil se serializa como JSON.
func (c *Client) Do(ctx context.Context, method, url string, body any) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("iamclient: encode body: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return nil, fmt.Errorf("iamclient: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.requestID != "" {
		req.Header.Set("X-Request-ID", c.requestID)
	}
	return c.http.Do(req)
}
