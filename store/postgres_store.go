package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/giygas/diagnostic-api/entities"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const uniqueViolation = "23505"

// PostgresStore keeps records in Postgres through database/sql and the pgx driver.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time

	schemaOnce sync.Once
	schemaErr  error
}

var _ Store = (*PostgresStore)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

// OpenPostgres connects, checks the connection and creates the tables if needed.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	s := &PostgresStore{db: db, now: time.Now}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  last_login TIMESTAMP WITH TIME ZONE
);

CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  items JSONB NOT NULL DEFAULT '[]',
  total DOUBLE PRECISION,
  status TEXT NOT NULL DEFAULT 'pending',
  tracking_code TEXT NOT NULL,
  created_at TIMESTAMP WITH TIME ZONE NOT NULL,
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders (user_id);

CREATE TABLE IF NOT EXISTS messages (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  sender TEXT NOT NULL,
  content TEXT NOT NULL,
  sent_at TIMESTAMP WITH TIME ZONE NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_user_id ON messages (user_id);

CREATE TABLE IF NOT EXISTS bilans (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  diagnostic_session_id TEXT NOT NULL,
  pathology_id TEXT NOT NULL,
  product_kit_id TEXT NOT NULL DEFAULT '',
  follow_up_date TIMESTAMP WITH TIME ZONE,
  completed BOOLEAN NOT NULL DEFAULT TRUE,
  notes TEXT NOT NULL DEFAULT '',
  results JSONB NOT NULL DEFAULT '[]',
  created_at TIMESTAMP WITH TIME ZONE NOT NULL,
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bilans_user_id ON bilans (user_id);
`)
		if s.schemaErr != nil {
			s.schemaErr = fmt.Errorf("failed to create schema: %w", s.schemaErr)
		}
	})
	return s.schemaErr
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *PostgresStore) CreateUser(ctx context.Context, u entities.User) (entities.User, error) {
	u = prepareUser(u, s.now())
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, email, name, phone, password_hash, created_at)
VALUES ($1,$2,$3,$4,$5,$6)`,
		u.ID, u.Email, u.Name, u.Phone, u.PasswordHash, u.CreatedAt)
	if isUniqueViolation(err) {
		return entities.User{}, fmt.Errorf("%w: email already registered", ErrConflict)
	}
	if err != nil {
		return entities.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return u, nil
}

func scanUser(row rowScanner) (entities.User, error) {
	var (
		u         entities.User
		lastLogin sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &u.PasswordHash, &u.CreatedAt, &lastLogin); err != nil {
		return entities.User{}, notFound(err)
	}
	if lastLogin.Valid {
		u.LastLogin = lastLogin.Time
	}
	return u, nil
}

const userColumns = `id, email, name, phone, password_hash, created_at, last_login`

func (s *PostgresStore) GetUser(ctx context.Context, id string) (entities.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (entities.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, NormalizeEmail(email)))
}

func (s *PostgresStore) TouchLogin(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CreateOrder(ctx context.Context, o entities.Order) (entities.Order, error) {
	o = prepareOrder(o, s.now())
	items, err := json.Marshal(o.Items)
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to encode order items: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO orders (id, user_id, items, total, status, tracking_code, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		o.ID, o.UserID, items, o.Total, string(o.Status), o.TrackingCode, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}
	return o, nil
}

const orderColumns = `id, user_id, items, total, status, tracking_code, created_at, updated_at`

func scanOrder(row rowScanner) (entities.Order, error) {
	var (
		o      entities.Order
		items  []byte
		total  sql.NullFloat64
		status string
	)
	if err := row.Scan(&o.ID, &o.UserID, &items, &total, &status, &o.TrackingCode, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return entities.Order{}, notFound(err)
	}
	o.Status = entities.OrderStatus(status)
	if total.Valid {
		o.Total = &total.Float64
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return entities.Order{}, fmt.Errorf("failed to decode order items: %w", err)
	}
	return o, nil
}

func (s *PostgresStore) ListOrders(ctx context.Context, userID string) ([]entities.Order, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	out := []entities.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateOrderStatus(ctx context.Context, userID, orderID string, status entities.OrderStatus) (entities.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	o, err := scanOrder(tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2 FOR UPDATE`, orderID, userID))
	if err != nil {
		return entities.Order{}, err
	}

	if status != "" {
		o.Status = status
	}
	o.UpdatedAt = s.now()
	if _, err := tx.ExecContext(ctx, `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`,
		o.ID, string(o.Status), o.UpdatedAt); err != nil {
		return entities.Order{}, fmt.Errorf("failed to update order: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return entities.Order{}, fmt.Errorf("failed to commit order update: %w", err)
	}
	return o, nil
}

func (s *PostgresStore) AddMessage(ctx context.Context, m entities.Message) (entities.Message, error) {
	m = prepareMessage(m, s.now())
	_, err := s.db.ExecContext(ctx, `
INSERT INTO messages (id, user_id, sender, content, sent_at) VALUES ($1,$2,$3,$4,$5)`,
		m.ID, m.UserID, m.From, m.Content, m.Timestamp)
	if err != nil {
		return entities.Message{}, fmt.Errorf("failed to insert message: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) ListMessages(ctx context.Context, userID string) ([]entities.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, sender, content, sent_at FROM messages WHERE user_id = $1 ORDER BY sent_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	out := []entities.Message{}
	for rows.Next() {
		var m entities.Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.From, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateBilan(ctx context.Context, b entities.Bilan) (entities.Bilan, error) {
	b = prepareBilan(b, s.now())
	results, err := json.Marshal(b.Results)
	if err != nil {
		return entities.Bilan{}, fmt.Errorf("failed to encode bilan results: %w", err)
	}
	if b.Results == nil {
		results = []byte("[]")
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO bilans (id, user_id, diagnostic_session_id, pathology_id, product_kit_id,
  follow_up_date, completed, notes, results, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		b.ID, b.UserID, b.DiagnosticSessionID, b.PathologyID, b.ProductKitID,
		b.FollowUpDate, b.Completed, b.Notes, results, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return entities.Bilan{}, fmt.Errorf("failed to insert bilan: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) ListBilans(ctx context.Context, userID string) ([]entities.Bilan, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, diagnostic_session_id, pathology_id, product_kit_id,
  follow_up_date, completed, notes, results, created_at, updated_at
FROM bilans WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bilans: %w", err)
	}
	defer rows.Close()

	out := []entities.Bilan{}
	for rows.Next() {
		var (
			b        entities.Bilan
			followUp sql.NullTime
			results  []byte
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.DiagnosticSessionID, &b.PathologyID, &b.ProductKitID,
			&followUp, &b.Completed, &b.Notes, &results, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		if followUp.Valid {
			t := followUp.Time
			b.FollowUpDate = &t
		}
		if len(results) > 0 {
			if err := json.Unmarshal(results, &b.Results); err != nil {
				return nil, fmt.Errorf("failed to decode bilan results: %w", err)
			}
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
