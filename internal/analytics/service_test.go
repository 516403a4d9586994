package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/tillcore-backend/internal/sales"
	"github.com/angelmondragon/tillcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
	"github.com/angelmondragon/tillcore-backend/pkg/visibility"
)

type stubAggregator struct {
	summary   sales.Summary
	err       error
	rankBy    enums.RankBy
	limit     int
	days      int
	seriesEnd time.Time
	actors    []visibility.Actor
}

func (s *stubAggregator) Summarize(_ context.Context, actor visibility.Actor, _ visibility.Filter, _ sales.Range) (*sales.Summary, error) {
	s.actors = append(s.actors, actor)
	if s.err != nil {
		return nil, s.err
	}
	out := s.summary
	return &out, nil
}

func (s *stubAggregator) BestSellers(_ context.Context, actor visibility.Actor, _ visibility.Filter, _ sales.Range, rankBy enums.RankBy, limit int) ([]sales.BestSeller, error) {
	s.actors = append(s.actors, actor)
	s.rankBy, s.limit = rankBy, limit
	return []sales.BestSeller{{ProductID: uuid.New(), ProductName: "Chips", Quantity: 3}}, nil
}

func (s *stubAggregator) DailySeries(_ context.Context, actor visibility.Actor, _ visibility.Filter, days int, now time.Time) ([]sales.DailyPoint, error) {
	s.actors = append(s.actors, actor)
	s.days, s.seriesEnd = days, now
	return make([]sales.DailyPoint, days), nil
}

func TestDashboardComposesScopedAggregates(t *testing.T) {
	agg := &stubAggregator{summary: sales.Summary{Transactions: 3, RevenueCents: 1000, COGSCents: 600, ProfitCents: 400}}
	svc, err := NewService(agg, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	actor := visibility.Actor{StaffID: uuid.New(), BusinessID: uuid.New(), Role: enums.StaffRoleOwner}
	to := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	dash, err := svc.Dashboard(context.Background(), actor, Request{Range: sales.Range{From: to.AddDate(0, 0, -7), To: to}})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if dash.AverageTicketCents != 333 {
		t.Fatalf("expected average ticket 333, got %d", dash.AverageTicketCents)
	}
	if dash.GrossMarginPercent != "40.00" {
		t.Fatalf("expected 40.00 margin, got %s", dash.GrossMarginPercent)
	}
	if agg.rankBy != enums.RankByQuantity || agg.limit != defaultBestSellers {
		t.Fatalf("expected default ranking, got %s/%d", agg.rankBy, agg.limit)
	}
	if agg.days != 7 || len(dash.Daily) != 7 {
		t.Fatalf("expected a 7 day series, got %d", agg.days)
	}
	if !agg.seriesEnd.Before(to) || agg.seriesEnd.Day() != 9 {
		t.Fatalf("series must end inside the half-open range, got %s", agg.seriesEnd)
	}
	for _, seen := range agg.actors {
		if seen != actor {
			t.Fatalf("every aggregate must run as the caller, got %+v", seen)
		}
	}
}

func TestDashboardPropagatesScopeErrors(t *testing.T) {
	agg := &stubAggregator{err: pkgerrors.New(pkgerrors.CodeScopeViolation, "branch outside actor scope")}
	svc, _ := NewService(agg, nil)
	_, err := svc.Dashboard(context.Background(), visibility.Actor{}, Request{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeScopeViolation) {
		t.Fatalf("expected scope violation, got %v", err)
	}
}

func TestAverageTicketAndMargin(t *testing.T) {
	if got := AverageTicket(1001, 2); got != 501 {
		t.Fatalf("expected half-up rounding to 501, got %d", got)
	}
	if got := AverageTicket(500, 0); got != 0 {
		t.Fatalf("expected 0 with no transactions, got %d", got)
	}
	if got := GrossMarginPercent(1, 3); got != "33.33" {
		t.Fatalf("expected 33.33, got %s", got)
	}
	if got := GrossMarginPercent(-50, 200); got != "-25.00" {
		t.Fatalf("expected -25.00, got %s", got)
	}
	if got := GrossMarginPercent(0, 0); got != "0.00" {
		t.Fatalf("expected 0.00, got %s", got)
	}
}

func TestResolveRange(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	rg, err := ResolveRange("7d", "", "", now)
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	if rg.To.Sub(rg.From) != 7*24*time.Hour || !rg.To.Equal(now) {
		t.Fatalf("unexpected 7d range %+v", rg)
	}

	rg, err = ResolveRange("", "", "", now)
	if err != nil || rg.To.Sub(rg.From) != 30*24*time.Hour {
		t.Fatalf("expected default 30d, got %+v err=%v", rg, err)
	}

	rg, err = ResolveRange("", "2026-03-01T00:00:00+03:00", "2026-03-02T00:00:00Z", now)
	if err != nil {
		t.Fatalf("explicit: %v", err)
	}
	if rg.From != time.Date(2026, 2, 28, 21, 0, 0, 0, time.UTC) {
		t.Fatalf("expected UTC from, got %s", rg.From)
	}

	for _, bad := range [][3]string{
		{"1y", "", ""},
		{"", "2026-03-01T00:00:00Z", ""},
		{"", "yesterday", "2026-03-02T00:00:00Z"},
		{"", "2026-03-02T00:00:00Z", "2026-03-01T00:00:00Z"},
	} {
		if _, err := ResolveRange(bad[0], bad[1], bad[2], now); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error for %v, got %v", bad, err)
		}
	}
}

func TestSeriesDaysCoversRange(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		rg   sales.Range
		want int
	}{
		{sales.Range{From: base, To: base.Add(36 * time.Hour)}, 2},
		{sales.Range{From: base, To: base.AddDate(0, 0, 90)}, 90},
		{sales.Range{From: base, To: base.AddDate(2, 0, 0)}, 366},
		{sales.Range{}, 30},
	}
	for _, tc := range cases {
		if got := seriesDays(tc.rg); got != tc.want {
			t.Fatalf("seriesDays(%v) = %d, want %d", tc.rg, got, tc.want)
		}
	}
}
