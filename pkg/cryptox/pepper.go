package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

var (
	pepperMu   sync.Mutex
	pepper     string
	pepperFile = "pepper"
)

// SetPepperPath points password hashing at a pepper file. The pepper is read
// (or generated) lazily on first use and cached until ReloadPepper.
func SetPepperPath(file string) {
	pepperMu.Lock()
	defer pepperMu.Unlock()

	pepperFile = file
	pepper = ""
}

// ReloadPepper drops the cached pepper and reads it from disk again.
func ReloadPepper() error {
	pepperMu.Lock()
	pepper = ""
	pepperMu.Unlock()

	_, err := loadPepper()
	return err
}

func loadPepper() (string, error) {
	pepperMu.Lock()
	defer pepperMu.Unlock()

	if pepper != "" {
		return pepper, nil
	}

	p, err := loadOrGeneratePepper(filepath.Clean(pepperFile))
	if err != nil {
		return "", err
	}
	pepper = p
	return pepper, nil
}

func loadOrGeneratePepper(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err == nil {
		return string(b), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", err
	}

	raw := make([]byte, keyLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	p := base64.RawURLEncoding.EncodeToString(raw)

	if err := os.WriteFile(path, []byte(p), 0o600); err != nil {
		return "", err
	}
	return p, nil
}
