package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/vault/api"
)

// resolveVault reads a secret from Vault using VAULT_ADDR and VAULT_TOKEN.
// Format: secret/data/path#key. KV v2 responses are unwrapped.
func resolveVault(ref string) (string, error) {
	path, key, ok := strings.Cut(ref, "#")
	if !ok || path == "" || key == "" {
		return "", fmt.Errorf("invalid Vault reference %q: expected format path#key", ref)
	}

	addr := os.Getenv("VAULT_ADDR")
	if addr == "" {
		return "", fmt.Errorf("VAULT_ADDR environment variable not set")
	}
	token := os.Getenv("VAULT_TOKEN")
	if token == "" {
		return "", fmt.Errorf("VAULT_TOKEN environment variable not set")
	}

	cfg := api.DefaultConfig()
	cfg.Address = addr
	client, err := api.NewClient(cfg)
	if err != nil {
		return "", fmt.Errorf("creating Vault client: %w", err)
	}
	client.SetToken(token)

	secret, err := client.Logical().ReadWithContext(context.Background(), path)
	if err != nil {
		return "", fmt.Errorf("reading Vault secret at %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("no secret found at %s", path)
	}

	data := secret.Data
	if inner, ok := data["data"].(map[string]interface{}); ok {
		data = inner
	}

	switch val := data[key].(type) {
	case string:
		return val, nil
	case nil:
		return "", fmt.Errorf("key %q not found in Vault secret at %s", key, path)
	default:
		return "", fmt.Errorf("Vault secret value for key %q is not a string", key)
	}
}
