package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/giygas/diagnostic-api/entities"
)

// Runs only when TEST_DATABASE_URL points at a disposable database.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("OpenPostgres failed: %v", err)
	}
	defer s.Close()

	email := "pg-" + newID() + "@example.com"
	u, err := s.CreateUser(ctx, entities.User{Email: email, PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := s.CreateUser(ctx, entities.User{Email: email, PasswordHash: "hash"}); !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}

	total := 12.5
	o, err := s.CreateOrder(ctx, entities.Order{UserID: u.ID, Total: &total,
		Items: []entities.OrderItem{{ProductID: "KIT", Name: "Kit", Quantity: 2}}})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	updated, err := s.UpdateOrderStatus(ctx, u.ID, o.ID, entities.OrderShipped)
	if err != nil {
		t.Fatalf("UpdateOrderStatus failed: %v", err)
	}
	if updated.Status != entities.OrderShipped || len(updated.Items) != 1 {
		t.Errorf("Unexpected updated order: %+v", updated)
	}
	if _, err := s.UpdateOrderStatus(ctx, "someone-else", o.ID, entities.OrderShipped); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if _, err := s.CreateBilan(ctx, entities.Bilan{UserID: u.ID, Completed: true}); err != nil {
		t.Fatalf("CreateBilan failed: %v", err)
	}
	bilans, err := s.ListBilans(ctx, u.ID)
	if err != nil || len(bilans) != 1 {
		t.Errorf("Expected 1 bilan, got %d (%v)", len(bilans), err)
	}
}
