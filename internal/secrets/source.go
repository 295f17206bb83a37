package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// VaultSource fetches secrets from a vault-like HTTP service:
// GET {addr}/secrets/{name} with bearer auth, returning {"value": "..."}.
type VaultSource struct {
	Addr   string
	Token  string
	Client *http.Client
}

// NewVaultSource constructs a VaultSource with a bounded default client.
func NewVaultSource(addr, token string) *VaultSource {
	return &VaultSource{
		Addr:   strings.TrimRight(addr, "/"),
		Token:  token,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch implements Source.
func (v *VaultSource) Fetch(ctx context.Context, name string) (string, error) {
	url := v.Addr + "/secrets/" + name
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	if v.Token != "" {
		req.Header.Set("Authorization", "Bearer "+v.Token)
	}

	resp, err := v.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("unknown secret %q", name)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vault returned status %d", resp.StatusCode)
	}

	var body struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return "", err
	}
	return body.Value, nil
}

// EnvSource resolves secrets from environment variables, mapping a secret
// name to an env key by upper-casing and replacing '-' with '_'. Used for
// local development when no vault address is configured.
type EnvSource struct{}

// Fetch implements Source.
func (EnvSource) Fetch(_ context.Context, name string) (string, error) {
	key := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v, nil
	}
	return "", fmt.Errorf("environment variable %s not set", key)
}
