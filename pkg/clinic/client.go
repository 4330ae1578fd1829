// Package clinic is the HTTP client for the clinical backend: patient
// registration, professionals, appointments, treatments and clinical
// records, all bearer-authenticated.
package clinic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	contractx "github.com/hampiwasi/intake/agent/contract"
)

const maxResponseSizeBytes = 2 << 20

var (
	ErrUnauthorized = errors.New("backend rejected credentials")
	ErrNoPatientID  = errors.New("backend returned no patient id")
)

// StatusError reports a non-2xx backend response. The policy layer treats
// it as a retryable, user-visible failure rather than a crash.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend status=%d body=%s", e.Code, e.Body)
}

type Config struct {
	BaseURL  string        `envconfig:"BASE_URL" split_words:"true" default:"http://localhost:3000"`
	Email    string        `envconfig:"EMAIL" split_words:"true" required:"true"`
	Password string        `envconfig:"PASSWORD" split_words:"true" required:"true"`
	Timeout  time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"20s"`
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// Client holds the process-wide bearer credential. The token is fetched
// lazily and refreshed at most once per 401; concurrent refreshes collapse
// into a single login via singleflight.
type Client struct {
	baseURL    string
	email      string
	password   string
	httpClient *http.Client

	mu      sync.RWMutex
	token   string
	refresh singleflight.Group
}

var _ contractx.Clinic = (*Client)(nil)

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("clinic base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid clinic base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	c := &Client{
		baseURL:    baseURL,
		email:      strings.TrimSpace(cfg.Email),
		password:   strings.TrimSpace(cfg.Password),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Authenticate logs in and stores the bearer token. Safe to call at startup
// to warm the credential; the client also refreshes on demand.
func (c *Client) Authenticate(ctx context.Context) error {
	_, err, _ := c.refresh.Do("login", func() (any, error) {
		token, err := c.login(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.token = token
		c.mu.Unlock()
		return token, nil
	})
	return err
}

func (c *Client) login(ctx context.Context) (string, error) {
	body, err := json.Marshal(loginRequest{Email: c.email, Password: c.password})
	if err != nil {
		return "", fmt.Errorf("marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute login request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return "", fmt.Errorf("read login response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: status=%d", ErrUnauthorized, resp.StatusCode)
	}

	var parsed loginResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if strings.TrimSpace(parsed.AccessToken) == "" {
		return "", fmt.Errorf("%w: empty access token", ErrUnauthorized)
	}
	return parsed.AccessToken, nil
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do executes one authorized JSON call. A 401 triggers exactly one
// re-authentication and one retry; any further 401 is terminal.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	resp, raw, err := c.exec(ctx, method, path, in)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if err := c.Authenticate(ctx); err != nil {
			return err
		}
		resp, raw, err = c.exec(ctx, method, path, in)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: still unauthorized after refresh", ErrUnauthorized)
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{Code: resp.StatusCode, Body: string(raw)}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) exec(ctx context.Context, method, path string, in any) (*http.Response, []byte, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal %s %s request: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, nil, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("execute %s %s request: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("read %s %s response: %w", method, path, err)
	}
	return resp, raw, nil
}

func (c *Client) CreatePatient(ctx context.Context, id contractx.Identity) (contractx.Patient, error) {
	var patient contractx.Patient
	if err := c.do(ctx, http.MethodPost, "/pacientes", id, &patient); err != nil {
		return contractx.Patient{}, err
	}
	if strings.TrimSpace(patient.ID) == "" {
		return contractx.Patient{}, ErrNoPatientID
	}
	return patient, nil
}

func (c *Client) ListProfessionals(ctx context.Context) ([]contractx.Professional, error) {
	var professionals []contractx.Professional
	if err := c.do(ctx, http.MethodGet, "/profesionales-salud", nil, &professionals); err != nil {
		return nil, err
	}
	return professionals, nil
}

func (c *Client) CreateAppointment(ctx context.Context, appt contractx.Appointment) error {
	return c.do(ctx, http.MethodPost, "/citas", appt, nil)
}

func (c *Client) ListTreatments(ctx context.Context) ([]contractx.Treatment, error) {
	var treatments []contractx.Treatment
	if err := c.do(ctx, http.MethodGet, "/tratamientos", nil, &treatments); err != nil {
		return nil, err
	}
	return treatments, nil
}

func (c *Client) CreateClinicalRecord(ctx context.Context, rec contractx.ClinicalRecord) error {
	return c.do(ctx, http.MethodPost, "/historias-clinicas", rec, nil)
}
