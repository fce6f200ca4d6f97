package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/wolfman30/careflow/internal/bookings"
	"github.com/wolfman30/careflow/internal/caregivers"
	"github.com/wolfman30/careflow/internal/catalog"
	"github.com/wolfman30/careflow/internal/compliance"
	"github.com/wolfman30/careflow/internal/dashboard"
	"github.com/wolfman30/careflow/internal/inquiries"
	"github.com/wolfman30/careflow/internal/invitations"
	"github.com/wolfman30/careflow/internal/lifecycle"
	"github.com/wolfman30/careflow/internal/proposals"
	"github.com/wolfman30/careflow/internal/storage"
	"github.com/wolfman30/careflow/internal/tickets"
	"github.com/wolfman30/careflow/pkg/logging"
)

// Stores holds one repository per record type plus the audit and
// dashboard backends.
type Stores struct {
	Inquiries   inquiries.Repository
	Proposals   proposals.Repository
	Bookings    bookings.Repository
	Tickets     tickets.Repository
	Invitations invitations.Repository
	Caregivers  caregivers.Repository
	Catalog     catalog.Repository
	Audit       compliance.Store
	Pipeline    dashboard.Counter

	pool  *pgxpool.Pool
	sqlDB *sql.DB
}

// Persistent reports whether the stores are backed by Postgres.
func (s *Stores) Persistent() bool {
	return s.pool != nil
}

// Close releases database handles.
func (s *Stores) Close() {
	if s.sqlDB != nil {
		_ = s.sqlDB.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

// BuildStores connects to Postgres when databaseURL is set and falls back
// to in-memory repositories otherwise.
func BuildStores(ctx context.Context, databaseURL string, logger *logging.Logger) (*Stores, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(databaseURL) == "" {
		logger.Warn("DATABASE_URL not set; using in-memory storage")
		return NewMemoryStores(), nil
	}

	pool, err := storage.NewPool(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	sqlDB := stdlib.OpenDBFromPool(pool)
	logger.Info("connected to postgres")

	return &Stores{
		Inquiries:   inquiries.NewPostgresRepository(pool),
		Proposals:   proposals.NewPostgresRepository(pool),
		Bookings:    bookings.NewPostgresRepository(pool),
		Tickets:     tickets.NewPostgresRepository(pool),
		Invitations: invitations.NewPostgresRepository(pool),
		Caregivers:  caregivers.NewPostgresRepository(pool),
		Catalog:     catalog.NewPostgresRepository(pool),
		Audit:       compliance.NewSQLStore(sqlDB),
		Pipeline:    dashboard.NewSQLCounter(sqlDB),
		pool:        pool,
		sqlDB:       sqlDB,
	}, nil
}

// NewMemoryStores builds process-local stores for development and tests.
func NewMemoryStores() *Stores {
	inq := inquiries.NewInMemoryRepository()
	prop := proposals.NewInMemoryRepository()
	book := bookings.NewInMemoryRepository()
	return &Stores{
		Inquiries:   inq,
		Proposals:   prop,
		Bookings:    book,
		Tickets:     tickets.NewInMemoryRepository(),
		Invitations: invitations.NewInMemoryRepository(),
		Caregivers:  caregivers.NewInMemoryRepository(),
		Catalog:     catalog.NewInMemoryRepository(),
		Audit:       compliance.NewMemoryStore(),
		Pipeline: dashboard.ListCounter{
			lifecycle.KindInquiry:  dashboard.PageTotal(inq.List),
			lifecycle.KindProposal: dashboard.PageTotal(prop.List),
			lifecycle.KindBooking:  dashboard.PageTotal(book.List),
		},
	}
}
