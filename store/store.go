// Package store persists users, orders, support messages and saved bilans,
// either in a JSON file or in Postgres.
package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/giygas/diagnostic-api/config"
	"github.com/giygas/diagnostic-api/entities"
	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Store is implemented by FileStore and PostgresStore. Create methods fill in
// missing ids and timestamps and return the stored record.
type Store interface {
	CreateUser(ctx context.Context, u entities.User) (entities.User, error)
	GetUser(ctx context.Context, id string) (entities.User, error)
	GetUserByEmail(ctx context.Context, email string) (entities.User, error)
	TouchLogin(ctx context.Context, id string, at time.Time) error

	CreateOrder(ctx context.Context, o entities.Order) (entities.Order, error)
	ListOrders(ctx context.Context, userID string) ([]entities.Order, error)
	UpdateOrderStatus(ctx context.Context, userID, orderID string, status entities.OrderStatus) (entities.Order, error)

	AddMessage(ctx context.Context, m entities.Message) (entities.Message, error)
	ListMessages(ctx context.Context, userID string) ([]entities.Message, error)

	CreateBilan(ctx context.Context, b entities.Bilan) (entities.Bilan, error)
	ListBilans(ctx context.Context, userID string) ([]entities.Bilan, error)

	Ping(ctx context.Context) error
	Close() error
}

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewTrackingCode returns a code of the form AFQ-123456.
func NewTrackingCode() string {
	return fmt.Sprintf("AFQ-%06d", 100000+rand.IntN(900000))
}

func newID() string {
	return uuid.NewString()
}

func prepareUser(u entities.User, now time.Time) entities.User {
	if u.ID == "" {
		u.ID = newID()
	}
	u.Email = NormalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	return u
}

func prepareOrder(o entities.Order, now time.Time) entities.Order {
	if o.ID == "" {
		o.ID = newID()
	}
	if o.Status == "" {
		o.Status = entities.OrderPending
	}
	if o.TrackingCode == "" {
		o.TrackingCode = NewTrackingCode()
	}
	if o.Items == nil {
		o.Items = []entities.OrderItem{}
	}
	o.CreatedAt = now
	o.UpdatedAt = now
	return o
}

func prepareMessage(m entities.Message, now time.Time) entities.Message {
	if m.ID == "" {
		m.ID = newID()
	}
	if m.From == "" {
		m.From = entities.FromPatient
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = now
	}
	return m
}

func prepareBilan(b entities.Bilan, now time.Time) entities.Bilan {
	if b.ID == "" {
		b.ID = newID()
	}
	if b.DiagnosticSessionID == "" {
		b.DiagnosticSessionID = fmt.Sprintf("session-%d", now.UnixMilli())
	}
	if b.PathologyID == "" {
		b.PathologyID = "unknown"
	}
	b.CreatedAt = now
	b.UpdatedAt = now
	return b
}

// Open returns the backend selected by cfg.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		return OpenPostgres(ctx, cfg.DatabaseURL)
	case config.StoreFile, "":
		return OpenFileStore(cfg.StorePath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
