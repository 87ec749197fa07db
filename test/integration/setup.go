// Package integration runs the storefront end to end against a real
// PostgreSQL container and an in-process product service.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/internal/database"
	"storefront/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, applies the migrations
// and opens a connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	if err := database.MigrateUp(connStr, zerolog.Nop()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"order_items", "orders", "cart_items"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

// ProductAPI is an in-memory product service speaking the remote REST API.
type ProductAPI struct {
	mu       sync.Mutex
	products map[int64]model.Product
	nextID   int64
	fail     bool
	URL      string
}

// StartProductAPI serves the given products under /api until the test ends.
func StartProductAPI(t *testing.T, products ...model.Product) *ProductAPI {
	t.Helper()

	api := &ProductAPI{products: make(map[int64]model.Product)}
	for _, p := range products {
		api.products[p.ID] = p
		if p.ID > api.nextID {
			api.nextID = p.ID
		}
	}

	server := httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(server.Close)
	api.URL = server.URL + "/api"
	return api
}

// SetFailing makes every request answer 500.
func (a *ProductAPI) SetFailing(fail bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fail = fail
}

// Product returns the stored product.
func (a *ProductAPI) Product(id int64) (model.Product, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.products[id]
	return p, ok
}

func (a *ProductAPI) serve(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.fail {
		http.Error(w, "product service unavailable", http.StatusInternalServerError)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/products")
	if rest == "" {
		switch r.Method {
		case http.MethodGet:
			list := make([]model.Product, 0, len(a.products))
			for _, p := range a.products {
				list = append(list, p)
			}
			sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
			writeJSON(w, http.StatusOK, list)
		case http.MethodPost:
			var p model.Product
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			a.nextID++
			p.ID = a.nextID
			a.products[p.ID] = p
			writeJSON(w, http.StatusCreated, p)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(rest, "/"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	p, ok := a.products[id]
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, p)
	case http.MethodPut:
		var updated model.Product
		if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		updated.ID = id
		a.products[id] = updated
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		delete(a.products, id)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
