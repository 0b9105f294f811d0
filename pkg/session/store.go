package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"xscraper/pkg/logger"
)

// Store persists session cookies as a JSON file on disk.
type Store struct {
	path string
	log  logger.Logger
}

// NewStore creates a cookie store backed by the given file path.
func NewStore(path string, log logger.Logger) *Store {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Store{path: path, log: log}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Save normalizes and writes the cookie set, replacing any previous file.
// The write goes through a temp file and rename.
func (s *Store) Save(cookies []Cookie) error {
	normalized := Normalize(cookies)

	data, err := json.MarshalIndent(normalized, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cookies: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create cookie directory: %w", err)
		}
	}

	tempFile := s.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write cookies: %w", err)
	}
	if err := os.Rename(tempFile, s.path); err != nil {
		return fmt.Errorf("failed to replace cookie file: %w", err)
	}

	s.log.InfoWithFields("session cookies saved", map[string]interface{}{
		"path":  s.path,
		"count": len(normalized),
	})
	return nil
}

// Load reads, parses and re-normalizes the persisted cookie set. A missing,
// unreadable or malformed file is a soft failure: it returns ok=false so the
// caller can fall back to the no-session path instead of crashing.
func (s *Store) Load() ([]Cookie, bool) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.WithError(err).Warn("failed to read cookie file")
		}
		return nil, false
	}

	var raw []rawCookie
	if err := json.Unmarshal(content, &raw); err != nil {
		s.log.WithError(err).WithField("path", s.path).Warn("cookie file is malformed, ignoring it")
		return nil, false
	}

	cookies := make([]Cookie, 0, len(raw))
	for _, r := range raw {
		cookies = append(cookies, r.toCookie())
	}
	return Normalize(cookies), true
}

// rawCookie tolerates the field variants different cookie exporters produce:
// a missing secure flag defaults to true, and the expiry may arrive under
// either "expires" or the legacy "expirationDate" name, as a float.
type rawCookie struct {
	Name           string   `json:"name"`
	Value          string   `json:"value"`
	Domain         string   `json:"domain"`
	Path           string   `json:"path"`
	Secure         *bool    `json:"secure"`
	HTTPOnly       bool     `json:"httpOnly"`
	SameSite       string   `json:"sameSite"`
	Expires        *float64 `json:"expires"`
	ExpirationDate *float64 `json:"expirationDate"`
}

func (r rawCookie) toCookie() Cookie {
	c := Cookie{
		Name:     r.Name,
		Value:    r.Value,
		Domain:   r.Domain,
		Path:     r.Path,
		Secure:   true,
		HTTPOnly: r.HTTPOnly,
		SameSite: r.SameSite,
	}
	if r.Secure != nil {
		c.Secure = *r.Secure
	}
	if r.Expires != nil {
		c.Expires = int64(*r.Expires)
	} else if r.ExpirationDate != nil {
		c.Expires = int64(*r.ExpirationDate)
	}
	return c
}
