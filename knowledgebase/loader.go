// Package knowledgebase reads and writes the symptom/pathology/product-kit document.
package knowledgebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/giygas/diagnostic-api/entities"
	"github.com/giygas/diagnostic-api/logging"
	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"
)

type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FormatFor picks the document format from the file extension. Anything that
// is not .yaml or .yml is read as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses a knowledge base document. Content that is not valid UTF-8 is
// decoded as ISO-8859-1 first.
func Decode(raw []byte, format Format) (*entities.KnowledgeBase, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode ISO-8859-1 content: %w", err)
		}
		raw = decoded
	}

	var kb entities.KnowledgeBase
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(raw, &kb); err != nil {
			return nil, fmt.Errorf("failed to parse YAML knowledge base: %w", err)
		}
	default:
		if err := json.Unmarshal(raw, &kb); err != nil {
			return nil, fmt.Errorf("failed to parse JSON knowledge base: %w", err)
		}
	}

	normalize(&kb)
	return &kb, nil
}

// Encode serializes kb in the given format, always as UTF-8.
func Encode(kb *entities.KnowledgeBase, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(kb); err != nil {
			return nil, fmt.Errorf("failed to encode YAML knowledge base: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		out, err := json.MarshalIndent(kb, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode JSON knowledge base: %w", err)
		}
		return append(out, '\n'), nil
	}
}

// normalize replaces nil collections with empty ones and trims ids.
func normalize(kb *entities.KnowledgeBase) {
	if kb.Symptoms == nil {
		kb.Symptoms = []entities.Symptom{}
	}
	if kb.Pathologies == nil {
		kb.Pathologies = []entities.Pathology{}
	}
	if kb.ProductKits == nil {
		kb.ProductKits = []entities.ProductKit{}
	}
	for i := range kb.Symptoms {
		kb.Symptoms[i].ID = strings.TrimSpace(kb.Symptoms[i].ID)
	}
	for i := range kb.Pathologies {
		p := &kb.Pathologies[i]
		p.ID = strings.TrimSpace(p.ID)
		if p.Symptoms == nil {
			p.Symptoms = []string{}
		}
		for j := range p.Symptoms {
			p.Symptoms[j] = strings.TrimSpace(p.Symptoms[j])
		}
	}
}

// LoadFile reads and decodes a knowledge base from disk.
func LoadFile(path string) (*entities.KnowledgeBase, error) {
	cleanPath := filepath.Clean(path)
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge base %s: %w", cleanPath, err)
	}
	kb, err := Decode(raw, FormatFor(cleanPath))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cleanPath, err)
	}
	return kb, nil
}

// LoadURL downloads and decodes a knowledge base published over HTTP.
func LoadURL(ctx context.Context, client *http.Client, url string) (*entities.KnowledgeBase, error) {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}

	response, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: status %d", url, response.StatusCode)
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(response.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	format := FormatFor(url)
	if ct := response.Header.Get("Content-Type"); strings.Contains(ct, "yaml") {
		format = FormatYAML
	}
	return Decode(bodyBytes, format)
}

func isURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}
