package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/giygas/diagnostic-api/entities"
	"github.com/giygas/diagnostic-api/logging"
)

type fileDocument struct {
	Users    []entities.User    `json:"users"`
	Orders   []entities.Order   `json:"orders"`
	Messages []entities.Message `json:"messages"`
	Bilans   []entities.Bilan   `json:"bilans"`
}

// FileStore keeps every record in memory and rewrites the JSON file after each change.
type FileStore struct {
	path string
	now  func() time.Time

	mu  sync.RWMutex
	doc fileDocument
}

var _ Store = (*FileStore)(nil)

// OpenFileStore loads path, starting empty when the file does not exist yet.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: filepath.Clean(path), now: time.Now}

	raw, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Info("Records file not found, starting empty", "path", s.path)
	case err != nil:
		return nil, fmt.Errorf("failed to read records file: %w", err)
	default:
		if err := json.Unmarshal(raw, &s.doc); err != nil {
			return nil, fmt.Errorf("failed to parse records file %s: %w", s.path, err)
		}
	}
	return s, nil
}

func (s *FileStore) Ping(ctx context.Context) error { return nil }
func (s *FileStore) Close() error                   { return nil }

// saveLocked writes the document through a temp file. Callers hold s.mu.
func (s *FileStore) saveLocked() error {
	out, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("failed to create records directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace records file: %w", err)
	}
	return nil
}

func (s *FileStore) CreateUser(ctx context.Context, u entities.User) (entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u = prepareUser(u, s.now())
	for _, existing := range s.doc.Users {
		if existing.Email == u.Email {
			return entities.User{}, fmt.Errorf("%w: email already registered", ErrConflict)
		}
	}

	s.doc.Users = append(s.doc.Users, u)
	if err := s.saveLocked(); err != nil {
		s.doc.Users = s.doc.Users[:len(s.doc.Users)-1]
		return entities.User{}, err
	}
	return u, nil
}

func (s *FileStore) GetUser(ctx context.Context, id string) (entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.doc.Users {
		if u.ID == id {
			return u, nil
		}
	}
	return entities.User{}, ErrNotFound
}

func (s *FileStore) GetUserByEmail(ctx context.Context, email string) (entities.User, error) {
	email = NormalizeEmail(email)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.doc.Users {
		if u.Email == email {
			return u, nil
		}
	}
	return entities.User{}, ErrNotFound
}

func (s *FileStore) TouchLogin(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.Users {
		if s.doc.Users[i].ID == id {
			s.doc.Users[i].LastLogin = at
			return s.saveLocked()
		}
	}
	return ErrNotFound
}

func (s *FileStore) CreateOrder(ctx context.Context, o entities.Order) (entities.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o = prepareOrder(o, s.now())
	s.doc.Orders = append(s.doc.Orders, o)
	if err := s.saveLocked(); err != nil {
		s.doc.Orders = s.doc.Orders[:len(s.doc.Orders)-1]
		return entities.Order{}, err
	}
	return o, nil
}

// ListOrders returns the user's orders, newest first.
func (s *FileStore) ListOrders(ctx context.Context, userID string) ([]entities.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []entities.Order{}
	for _, o := range s.doc.Orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	slices.SortStableFunc(out, func(a, b entities.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (s *FileStore) UpdateOrderStatus(ctx context.Context, userID, orderID string, status entities.OrderStatus) (entities.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.Orders {
		o := &s.doc.Orders[i]
		if o.ID != orderID || o.UserID != userID {
			continue
		}
		previous := *o
		if status != "" {
			o.Status = status
		}
		o.UpdatedAt = s.now()
		if err := s.saveLocked(); err != nil {
			*o = previous
			return entities.Order{}, err
		}
		return *o, nil
	}
	return entities.Order{}, ErrNotFound
}

func (s *FileStore) AddMessage(ctx context.Context, m entities.Message) (entities.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m = prepareMessage(m, s.now())
	s.doc.Messages = append(s.doc.Messages, m)
	if err := s.saveLocked(); err != nil {
		s.doc.Messages = s.doc.Messages[:len(s.doc.Messages)-1]
		return entities.Message{}, err
	}
	return m, nil
}

// ListMessages returns the conversation oldest first.
func (s *FileStore) ListMessages(ctx context.Context, userID string) ([]entities.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []entities.Message{}
	for _, m := range s.doc.Messages {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b entities.Message) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out, nil
}

func (s *FileStore) CreateBilan(ctx context.Context, b entities.Bilan) (entities.Bilan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b = prepareBilan(b, s.now())
	s.doc.Bilans = append(s.doc.Bilans, b)
	if err := s.saveLocked(); err != nil {
		s.doc.Bilans = s.doc.Bilans[:len(s.doc.Bilans)-1]
		return entities.Bilan{}, err
	}
	return b, nil
}

// ListBilans returns the user's bilans, newest first.
func (s *FileStore) ListBilans(ctx context.Context, userID string) ([]entities.Bilan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []entities.Bilan{}
	for _, b := range s.doc.Bilans {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	slices.SortStableFunc(out, func(a, b entities.Bilan) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}
