package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/mobile-cart/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

type dialect string

const (
	dialectSQLite   dialect = "sqlite"
	dialectPostgres dialect = "postgres"
)

// Credentials locates a PostgreSQL server.
type Credentials struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

func (c *Credentials) dsn() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.DBName)
}

// SQLRepository stores one cart as rows of cart_items. The same queries
// run on SQLite (on-device) and PostgreSQL.
type SQLRepository struct {
	db      *sql.DB
	dialect dialect
	key     string
}

func NewSQLiteRepository(dbPath, cartKey string) (*SQLRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite allows a single writer
	db.SetMaxOpenConns(1)
	return &SQLRepository{db: db, dialect: dialectSQLite, key: cartKey}, nil
}

func NewPostgresRepository(cred *Credentials, cartKey string) (*SQLRepository, error) {
	db, err := sql.Open("postgres", cred.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return &SQLRepository{db: db, dialect: dialectPostgres, key: cartKey}, nil
}

// RunMigrations applies the embedded migrations for the repository's dialect.
func (r *SQLRepository) RunMigrations() error {
	var (
		driver database.Driver
		err    error
	)
	switch r.dialect {
	case dialectSQLite:
		driver, err = sqlite.WithInstance(r.db, &sqlite.Config{})
	case dialectPostgres:
		driver, err = postgres.WithInstance(r.db, &postgres.Config{})
	default:
		return fmt.Errorf("unsupported dialect %q", r.dialect)
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations/"+string(r.dialect))
	if err != nil {
		return fmt.Errorf("could not open migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, string(r.dialect), driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (r *SQLRepository) Load(ctx context.Context) ([]domain.LineItem, error) {
	query := `
		SELECT product_id, name, unit_price, image, quantity
		FROM cart_items
		WHERE cart_key = $1
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, query, r.key)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	items := []domain.LineItem{}
	for rows.Next() {
		var item domain.LineItem
		err := rows.Scan(
			&item.ProductID,
			&item.Name,
			&item.UnitPrice,
			&item.Image,
			&item.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

// Save replaces every row of the cart in one transaction.
func (r *SQLRepository) Save(ctx context.Context, items []domain.LineItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_key = $1`, r.key); err != nil {
		return fmt.Errorf("failed to delete cart items: %w", err)
	}

	if len(items) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO cart_items (cart_key, product_id, name, unit_price, image, quantity, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, item := range items {
			_, err := stmt.ExecContext(ctx,
				r.key,
				item.ProductID,
				item.Name,
				item.UnitPrice,
				item.Image,
				item.Quantity,
				i,
			)
			if err != nil {
				return fmt.Errorf("failed to insert cart item %s: %w", item.ProductID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cart: %w", err)
	}
	return nil
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}
