// Package analytics composes the scoped sale aggregations into the owner and
// branch dashboards.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tillcore-backend/internal/sales"
	"github.com/angelmondragon/tillcore-backend/pkg/enums"
	"github.com/angelmondragon/tillcore-backend/pkg/visibility"
)

const defaultBestSellers = 5

type aggregator interface {
	Summarize(ctx context.Context, actor visibility.Actor, filter visibility.Filter, rg sales.Range) (*sales.Summary, error)
	BestSellers(ctx context.Context, actor visibility.Actor, filter visibility.Filter, rg sales.Range, rankBy enums.RankBy, limit int) ([]sales.BestSeller, error)
	DailySeries(ctx context.Context, actor visibility.Actor, filter visibility.Filter, days int, now time.Time) ([]sales.DailyPoint, error)
}

// Service provides dashboard data.
type Service interface {
	Dashboard(ctx context.Context, actor visibility.Actor, req Request) (*Dashboard, error)
}

type Request struct {
	Filter     visibility.Filter
	Range      sales.Range
	SeriesDays int
	RankBy     enums.RankBy
	Limit      int
}

type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Dashboard is already scoped to the actor; nothing in it is filtered later.
type Dashboard struct {
	Window             Window             `json:"window"`
	Summary            sales.Summary      `json:"summary"`
	AverageTicketCents int64              `json:"average_ticket_cents"`
	GrossMarginPercent string             `json:"gross_margin_percent"`
	RankBy             enums.RankBy       `json:"rank_by"`
	BestSellers        []sales.BestSeller `json:"best_sellers"`
	Daily              []sales.DailyPoint `json:"daily"`
}

type service struct {
	sales aggregator
	now   func() time.Time
}

func NewService(agg aggregator, clock func() time.Time) (Service, error) {
	if agg == nil {
		return nil, fmt.Errorf("sales aggregator required")
	}
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return &service{sales: agg, now: clock}, nil
}

func (s *service) Dashboard(ctx context.Context, actor visibility.Actor, req Request) (*Dashboard, error) {
	rankBy := req.RankBy
	if rankBy == "" {
		rankBy = enums.RankByQuantity
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultBestSellers
	}
	days := req.SeriesDays
	if days <= 0 {
		days = seriesDays(req.Range)
	}
	seriesEnd := req.Range.To
	if seriesEnd.IsZero() {
		seriesEnd = s.now()
	}

	summary, err := s.sales.Summarize(ctx, actor, req.Filter, req.Range)
	if err != nil {
		return nil, err
	}
	best, err := s.sales.BestSellers(ctx, actor, req.Filter, req.Range, rankBy, limit)
	if err != nil {
		return nil, err
	}
	// DailySeries ends on the calendar day containing the instant it is
	// given, so step back inside the half-open upper bound.
	daily, err := s.sales.DailySeries(ctx, actor, req.Filter, days, seriesEnd.Add(-time.Nanosecond))
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Window:             Window{From: req.Range.From, To: req.Range.To},
		Summary:            *summary,
		AverageTicketCents: AverageTicket(summary.RevenueCents, summary.Transactions),
		GrossMarginPercent: GrossMarginPercent(summary.ProfitCents, summary.RevenueCents),
		RankBy:             rankBy,
		BestSellers:        best,
		Daily:              daily,
	}, nil
}

// AverageTicket is revenue per transaction in minor units, rounded half up.
func AverageTicket(revenueCents, transactions int64) int64 {
	if transactions <= 0 {
		return 0
	}
	return decimal.NewFromInt(revenueCents).
		Div(decimal.NewFromInt(transactions)).
		Round(0).
		IntPart()
}

// GrossMarginPercent renders profit / revenue as a percentage with two decimals.
func GrossMarginPercent(profitCents, revenueCents int64) string {
	if revenueCents == 0 {
		return decimal.Zero.StringFixed(2)
	}
	return decimal.NewFromInt(profitCents).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(revenueCents)).
		StringFixed(2)
}
