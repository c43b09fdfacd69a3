package paramstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// tokenPayload is the JSON shape stored in SSM for every secret value.
type tokenPayload struct {
	Token string `json:"token"`
}

// Secret lazily loads one `{"token": "..."}` parameter and caches it for the
// lifetime of the process. A failed load is retried on the next call.
type Secret struct {
	getter Getter
	name   string

	mu     sync.Mutex
	loaded bool
	value  string
}

// NewSecret binds a Secret to a parameter name.
func NewSecret(getter Getter, name string) (*Secret, error) {
	if getter == nil {
		return nil, errors.New("paramstore: getter must not be nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("paramstore: secret name must not be empty")
	}
	return &Secret{getter: getter, name: name}, nil
}

// StaticSecret returns a Secret that always yields value, for local
// development and tests.
func StaticSecret(value string) *Secret {
	return &Secret{loaded: true, value: value}
}

// Value returns the cached token, fetching it on first use.
func (s *Secret) Value(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.value, nil
	}
	v, err := fetchToken(ctx, s.getter, s.name)
	if err != nil {
		return "", err
	}
	s.value = v
	s.loaded = true
	return v, nil
}

func fetchToken(ctx context.Context, getter Getter, name string) (string, error) {
	if getter == nil {
		return "", errors.New("paramstore: getter is nil")
	}
	raw, err := getter.GetParameter(ctx, name)
	if err != nil {
		return "", fmt.Errorf("paramstore: fetch secret %q: %w", name, err)
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("paramstore: unmarshal secret %q as JSON: %w", name, err)
	}
	if strings.TrimSpace(tp.Token) == "" {
		return "", fmt.Errorf("paramstore: secret %q token is empty", name)
	}
	return tp.Token, nil
}
