// Package cep resolves Brazilian postal codes (CEP) to address fields
// through the ViaCEP web service.
package cep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"solarintake/pkg/types"

	"github.com/sirupsen/logrus"
)

const DefaultBaseURL = "https://viacep.com.br/ws"

var (
	ErrInvalidCode = errors.New("postal code must have 8 digits")
	ErrNotFound    = errors.New("postal code not found")
)

// LookupError wraps a failure to reach or understand the lookup service.
type LookupError struct {
	Code string
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup postal code %s: %v", e.Code, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logrus.FieldLogger
}

// NewClient creates a ViaCEP client. A zero timeout leaves requests bounded
// only by their context.
func NewClient(baseURL string, timeout time.Duration, logger logrus.FieldLogger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type viaCEPResponse struct {
	CEP         string `json:"cep"`
	Logradouro  string `json:"logradouro"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Localidade  string `json:"localidade"`
	UF          string `json:"uf"`
	Erro        any    `json:"erro"`
}

// Lookup resolves an 8 digit code. Not found codes return ErrNotFound.
func (c *Client) Lookup(ctx context.Context, code string) (*types.AddressLookup, error) {
	code = Digits(code)
	if len(code) != 8 {
		return nil, ErrInvalidCode
	}

	url := fmt.Sprintf("%s/%s/json/", c.baseURL, code)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &LookupError{Code: code, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &LookupError{Code: code, Err: err}
	}
	defer resp.Body.Close()

	// ViaCEP answers 400 for malformed codes.
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &LookupError{Code: code, Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(body))}
	}

	var payload viaCEPResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &LookupError{Code: code, Err: fmt.Errorf("decode response: %w", err)}
	}

	// erro comes back as true or "true" depending on the API version
	if payload.Erro != nil && payload.Erro != false && payload.Erro != "false" {
		return nil, ErrNotFound
	}

	c.logger.WithField("cep", code).Debug("postal code resolved")

	return &types.AddressLookup{
		CEP:        Format(code),
		Street:     payload.Logradouro,
		Complement: payload.Complemento,
		District:   payload.Bairro,
		City:       payload.Localidade,
		State:      payload.UF,
	}, nil
}
