package knowledgebase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/giygas/diagnostic-api/entities"
	"github.com/giygas/diagnostic-api/interfaces"
	"github.com/giygas/diagnostic-api/logging"
	"github.com/google/uuid"
)

var (
	ErrPathologyNotFound = errors.New("pathology not found")
	ErrPathologyExists   = errors.New("pathology already exists")
	ErrReadOnly          = errors.New("knowledge base source is read-only")
)

// Compile-time check to ensure Repository implements KnowledgeBaseSource
var _ interfaces.KnowledgeBaseSource = (*Repository)(nil)

// Repository owns the knowledge base document. Writes are serialized and
// replace the file atomically so a reload never sees a partial document.
type Repository struct {
	path   string
	client *http.Client
	mu     sync.Mutex
}

func NewRepository(path string) *Repository {
	return &Repository{
		path:   path,
		client: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (r *Repository) Path() string {
	return r.path
}

// Load reads the document from its file or URL.
func (r *Repository) Load(ctx context.Context) (*entities.KnowledgeBase, error) {
	if isURL(r.path) {
		return LoadURL(ctx, r.client, r.path)
	}
	return LoadFile(r.path)
}

// ModTime returns the file modification time. Remote sources always report the
// current time so that every scheduled check reloads them.
func (r *Repository) ModTime() (time.Time, error) {
	if isURL(r.path) {
		return time.Now(), nil
	}
	info, err := os.Stat(filepath.Clean(r.path))
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Save writes kb to a temp file in the same directory and renames it over the target.
func (r *Repository) Save(kb *entities.KnowledgeBase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked(kb)
}

func (r *Repository) saveLocked(kb *entities.KnowledgeBase) error {
	if isURL(r.path) {
		return ErrReadOnly
	}

	target := filepath.Clean(r.path)
	out, err := Encode(kb, FormatFor(target))
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if _, statErr := os.Stat(tmpName); statErr == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(out); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write knowledge base: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync knowledge base: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("failed to replace knowledge base: %w", err)
	}

	logging.Info("Knowledge base written", "path", target, "pathologies", len(kb.Pathologies))
	return nil
}

// Mutate runs fn on a private copy of the document read from disk and saves
// the result. Concurrent mutations are applied one after another.
func (r *Repository) Mutate(ctx context.Context, fn func(kb *entities.KnowledgeBase) error) (*entities.KnowledgeBase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := r.saveLocked(next); err != nil {
		return nil, err
	}
	return next, nil
}

// CreatePathology appends p. An empty id gets a generated "P" id.
func (r *Repository) CreatePathology(ctx context.Context, p entities.Pathology) (entities.Pathology, *entities.KnowledgeBase, error) {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		p.ID = newPathologyID()
	}
	if p.Symptoms == nil {
		p.Symptoms = []string{}
	}

	kb, err := r.Mutate(ctx, func(kb *entities.KnowledgeBase) error {
		if _, exists := kb.PathologyByID(p.ID); exists {
			return fmt.Errorf("%w: %s", ErrPathologyExists, p.ID)
		}
		kb.Pathologies = append(kb.Pathologies, p)
		return nil
	})
	return p, kb, err
}

// UpdatePathology applies patch to the stored pathology. The id cannot change.
func (r *Repository) UpdatePathology(ctx context.Context, id string, patch func(p *entities.Pathology) error) (entities.Pathology, *entities.KnowledgeBase, error) {
	var updated entities.Pathology
	kb, err := r.Mutate(ctx, func(kb *entities.KnowledgeBase) error {
		for i := range kb.Pathologies {
			if kb.Pathologies[i].ID != id {
				continue
			}
			p := kb.Pathologies[i]
			if err := patch(&p); err != nil {
				return err
			}
			p.ID = id
			kb.Pathologies[i] = p
			updated = p
			return nil
		}
		return fmt.Errorf("%w: %s", ErrPathologyNotFound, id)
	})
	return updated, kb, err
}

func (r *Repository) DeletePathology(ctx context.Context, id string) (*entities.KnowledgeBase, error) {
	return r.Mutate(ctx, func(kb *entities.KnowledgeBase) error {
		kept := kb.Pathologies[:0]
		for _, p := range kb.Pathologies {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		if len(kept) == len(kb.Pathologies) {
			return fmt.Errorf("%w: %s", ErrPathologyNotFound, id)
		}
		kb.Pathologies = kept
		return nil
	})
}

func newPathologyID() string {
	id := uuid.New()
	return "P" + strconv.FormatUint(uint64(id.ID()), 36)
}
