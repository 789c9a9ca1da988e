package app

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const signingSecretBytes = 32

// Identity is the per-installation state that must survive restarts: the
// session signing secret and the instance id that tokens bind to. Both are
// generated on first run and persisted to a 0600 file.
type Identity struct {
	SecretKey  string `json:"secretKey"`
	InstanceID string `json:"instanceId"`
}

// LoadOrCreateIdentity reads the identity file, generating and persisting
// any missing value. A data restore that brings an old identity file along
// keeps its instance id, which is exactly what instance binding is for.
func LoadOrCreateIdentity(path string) (Identity, error) {
	path = filepath.Clean(path)

	var id Identity
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// fall through to generation
	case err != nil:
		return Identity{}, fmt.Errorf("read secrets file: %w", err)
	default:
		if err := json.Unmarshal(data, &id); err != nil {
			return Identity{}, fmt.Errorf("parse secrets file %s: %w", path, err)
		}
	}

	dirty := false
	if id.SecretKey == "" {
		buf := make([]byte, signingSecretBytes)
		if _, err := rand.Read(buf); err != nil {
			return Identity{}, fmt.Errorf("generate signing secret: %w", err)
		}
		id.SecretKey = base64.RawURLEncoding.EncodeToString(buf)
		dirty = true
	}
	if id.InstanceID == "" {
		id.InstanceID = uuid.NewString()
		dirty = true
	}

	if dirty {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return Identity{}, fmt.Errorf("create secrets directory: %w", err)
		}
		out, err := json.MarshalIndent(id, "", "  ")
		if err != nil {
			return Identity{}, err
		}
		if err := os.WriteFile(path, out, 0600); err != nil {
			return Identity{}, fmt.Errorf("write secrets file: %w", err)
		}
	}

	return id, nil
}
