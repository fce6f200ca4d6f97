// Package dashboard reports the care pipeline funnel.
package dashboard

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"slices"

	"github.com/lib/pq"

	"github.com/wolfman30/careflow/internal/lifecycle"
	"github.com/wolfman30/careflow/internal/listing"
)

// Counter returns how many records of a kind are in each status.
type Counter interface {
	CountByStatus(ctx context.Context, kind lifecycle.Kind, statuses []string) (map[string]int, error)
}

var tables = map[lifecycle.Kind]string{
	lifecycle.KindInquiry:  "inquiries",
	lifecycle.KindProposal: "proposals",
	lifecycle.KindBooking:  "bookings",
}

// SQLCounter counts with one grouped query per kind.
type SQLCounter struct {
	db *sql.DB
}

func NewSQLCounter(db *sql.DB) *SQLCounter {
	return &SQLCounter{db: db}
}

func (c *SQLCounter) CountByStatus(ctx context.Context, kind lifecycle.Kind, statuses []string) (map[string]int, error) {
	table, ok := tables[kind]
	if !ok {
		return nil, fmt.Errorf("dashboard: no table for %s", kind)
	}
	rows, err := c.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM `+table+` WHERE status = ANY($1) GROUP BY status`,
		pq.Array(statuses),
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard: count %s: %w", table, err)
	}
	defer rows.Close()

	counts := make(map[string]int, len(statuses))
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("dashboard: scan %s: %w", table, err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// TotalFunc reports how many records match a listing query.
type TotalFunc func(ctx context.Context, status string) (int, error)

// ListCounter counts through repository listings. Used with in-memory storage.
type ListCounter map[lifecycle.Kind]TotalFunc

func (c ListCounter) CountByStatus(ctx context.Context, kind lifecycle.Kind, statuses []string) (map[string]int, error) {
	total, ok := c[kind]
	if !ok {
		return nil, fmt.Errorf("dashboard: no counter for %s", kind)
	}
	counts := make(map[string]int, len(statuses))
	for _, s := range statuses {
		n, err := total(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("dashboard: count %s %s: %w", kind, s, err)
		}
		counts[s] = n
	}
	return counts, nil
}

// PageTotal adapts a paged List method to TotalFunc.
func PageTotal[T any](list func(ctx context.Context, q listing.Query) (listing.Page[T], error)) TotalFunc {
	return func(ctx context.Context, status string) (int, error) {
		page, err := list(ctx, listing.Query{Status: status, PageSize: 1})
		if err != nil {
			return 0, err
		}
		return page.Pagination.Total, nil
	}
}

// Stage is the funnel summary for one kind.
type Stage struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
}

// Pipeline is the funnel from inquiry to completed visit.
type Pipeline struct {
	Inquiries Stage       `json:"inquiries"`
	Proposals Stage       `json:"proposals"`
	Bookings  Stage       `json:"bookings"`
	Rates     Conversions `json:"conversionRates"`
}

// Conversions are ratios in [0,1], rounded to four places.
type Conversions struct {
	// InquiryToConverted is converted over all inquiries.
	InquiryToConverted float64 `json:"inquiryToConverted"`
	// ProposalAcceptance is accepted over decided proposals.
	ProposalAcceptance float64 `json:"proposalAcceptance"`
	// BookingCompletion is completed over closed bookings.
	BookingCompletion float64 `json:"bookingCompletion"`
}

type Service struct {
	counter Counter
}

func NewService(counter Counter) *Service {
	return &Service{counter: counter}
}

// Pipeline builds the funnel. Every known status appears, with zero when empty.
func (s *Service) Pipeline(ctx context.Context) (Pipeline, error) {
	var p Pipeline
	var err error
	if p.Inquiries, err = s.stage(ctx, lifecycle.Inquiry); err != nil {
		return Pipeline{}, err
	}
	if p.Proposals, err = s.stage(ctx, lifecycle.Proposal); err != nil {
		return Pipeline{}, err
	}
	if p.Bookings, err = s.stage(ctx, lifecycle.Booking); err != nil {
		return Pipeline{}, err
	}

	p.Rates = Conversions{
		InquiryToConverted: ratio(p.Inquiries.ByStatus[string(lifecycle.InquiryConverted)], p.Inquiries.Total),
		ProposalAcceptance: ratio(
			p.Proposals.ByStatus[string(lifecycle.ProposalAccepted)],
			p.Proposals.ByStatus[string(lifecycle.ProposalAccepted)]+p.Proposals.ByStatus[string(lifecycle.ProposalRejected)],
		),
		BookingCompletion: ratio(
			p.Bookings.ByStatus[string(lifecycle.BookingCompleted)],
			p.Bookings.ByStatus[string(lifecycle.BookingCompleted)]+p.Bookings.ByStatus[string(lifecycle.BookingCancelled)],
		),
	}
	return p, nil
}

func (s *Service) stage(ctx context.Context, m *lifecycle.Machine) (Stage, error) {
	statuses := make([]string, 0, len(m.Statuses()))
	for _, st := range m.Statuses() {
		statuses = append(statuses, string(st))
	}
	slices.Sort(statuses)

	counts, err := s.counter.CountByStatus(ctx, m.Kind(), statuses)
	if err != nil {
		return Stage{}, err
	}
	stage := Stage{ByStatus: make(map[string]int, len(statuses))}
	for _, st := range statuses {
		stage.ByStatus[st] = counts[st]
		stage.Total += counts[st]
	}
	return stage, nil
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(d)*10000) / 10000
}
