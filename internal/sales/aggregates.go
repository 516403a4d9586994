package sales

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/tillcore-backend/pkg/db/models"
	"github.com/angelmondragon/tillcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
	"github.com/angelmondragon/tillcore-backend/pkg/visibility"
)

const (
	maxSeriesDays       = 366
	defaultBestSellers  = 10
	maxBestSellersLimit = 100
)

// Summarize computes every scalar aggregate in one query. Revenue is the
// pre-tax subtotal.
func (r *Recorder) Summarize(ctx context.Context, actor visibility.Actor, filter visibility.Filter, rg Range) (*Summary, error) {
	q, err := r.base(ctx, actor, filter, rg)
	if err != nil {
		return nil, err
	}
	var row struct {
		Transactions int64
		Revenue      int64
		Tax          int64
		Gross        int64
		Cost         int64
		Items        int64
	}
	err = q.Model(&models.Sale{}).
		Select(`COUNT(*) AS transactions,
			COALESCE(SUM(sales.subtotal_cents), 0) AS revenue,
			COALESCE(SUM(sales.tax_cents), 0) AS tax,
			COALESCE(SUM(sales.total_cents), 0) AS gross,
			COALESCE(SUM(sales.cost_cents), 0) AS cost,
			COALESCE(SUM(sales.item_count), 0) AS items`).
		Scan(&row).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarize sales")
	}
	return &Summary{
		Transactions: row.Transactions,
		RevenueCents: row.Revenue,
		TaxCents:     row.Tax,
		GrossCents:   row.Gross,
		COGSCents:    row.Cost,
		ItemsSold:    row.Items,
		ProfitCents:  row.Revenue - row.Cost,
	}, nil
}

func (r *Recorder) Revenue(ctx context.Context, actor visibility.Actor, filter visibility.Filter, rg Range) (int64, error) {
	s, err := r.Summarize(ctx, actor, filter, rg)
	if err != nil {
		return 0, err
	}
	return s.RevenueCents, nil
}

func (r *Recorder) TransactionCount(ctx context.Context, actor visibility.Actor, filter visibility.Filter, rg Range) (int64, error) {
	s, err := r.Summarize(ctx, actor, filter, rg)
	if err != nil {
		return 0, err
	}
	return s.Transactions, nil
}

// COGS is the sum of unit cost times quantity frozen on each line.
func (r *Recorder) COGS(ctx context.Context, actor visibility.Actor, filter visibility.Filter, rg Range) (int64, error) {
	s, err := r.Summarize(ctx, actor, filter, rg)
	if err != nil {
		return 0, err
	}
	return s.COGSCents, nil
}

func (r *Recorder) GrossProfit(ctx context.Context, actor visibility.Actor, filter visibility.Filter, rg Range) (int64, error) {
	s, err := r.Summarize(ctx, actor, filter, rg)
	if err != nil {
		return 0, err
	}
	return s.ProfitCents, nil
}

// BestSellers ranks products by quantity or revenue. Ties go to the lower
// product id so the order is stable across calls.
func (r *Recorder) BestSellers(ctx context.Context, actor visibility.Actor, filter visibility.Filter, rg Range, rankBy enums.RankBy, limit int) ([]BestSeller, error) {
	if rankBy == "" {
		rankBy = enums.RankByQuantity
	}
	if !rankBy.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid rank_by")
	}
	if limit <= 0 {
		limit = defaultBestSellers
	}
	if limit > maxBestSellersLimit {
		limit = maxBestSellersLimit
	}
	q, err := r.base(ctx, actor, filter, rg)
	if err != nil {
		return nil, err
	}

	order := "quantity DESC, sale_line_items.product_id ASC"
	if rankBy == enums.RankByRevenue {
		order = "revenue_cents DESC, sale_line_items.product_id ASC"
	}
	var rows []BestSeller
	err = q.Table("sale_line_items").
		Joins("JOIN sales ON sales.id = sale_line_items.sale_id").
		Select(`sale_line_items.product_id AS product_id,
			MAX(sale_line_items.product_name) AS product_name,
			MAX(sale_line_items.category) AS category,
			SUM(sale_line_items.quantity) AS quantity,
			SUM(sale_line_items.line_total_cents) AS revenue_cents`).
		Group("sale_line_items.product_id").
		Order(order).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rank best sellers")
	}
	if rows == nil {
		rows = []BestSeller{}
	}
	return rows, nil
}

// DailySeries returns one point per calendar day for the trailing days
// ending on now's date in the business timezone, oldest first. Days without
// sales are present with zero values.
func (r *Recorder) DailySeries(ctx context.Context, actor visibility.Actor, filter visibility.Filter, days int, now time.Time) ([]DailyPoint, error) {
	if days <= 0 || days > maxSeriesDays {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "days must be between 1 and 366")
	}
	scope, err := narrowed(actor, filter)
	if err != nil {
		return nil, err
	}

	var business models.Business
	if err := r.db.WithContext(ctx).Where("id = ?", scope.BusinessID()).First(&business).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load business timezone")
	}
	loc := business.Location()

	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	start := today.AddDate(0, 0, -(days - 1))
	end := today.AddDate(0, 0, 1)

	var rows []struct {
		CreatedAt     time.Time
		SubtotalCents int64
	}
	err = r.db.WithContext(ctx).
		Model(&models.Sale{}).
		Scopes(scope.Scoped(visibility.SaleColumns), Range{From: start, To: end}.scoped()).
		Select("sales.created_at, sales.subtotal_cents").
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load daily sales")
	}

	points := make([]DailyPoint, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		key := start.AddDate(0, 0, i).Format(time.DateOnly)
		points[i] = DailyPoint{Date: key}
		index[key] = i
	}
	for _, row := range rows {
		key := row.CreatedAt.In(loc).Format(time.DateOnly)
		if i, ok := index[key]; ok {
			points[i].RevenueCents += row.SubtotalCents
			points[i].Transactions++
		}
	}
	return points, nil
}

func (r *Recorder) base(ctx context.Context, actor visibility.Actor, filter visibility.Filter, rg Range) (*gorm.DB, error) {
	if err := rg.validate(); err != nil {
		return nil, err
	}
	scope, err := narrowed(actor, filter)
	if err != nil {
		return nil, err
	}
	return r.db.WithContext(ctx).Scopes(scope.Scoped(visibility.SaleColumns), rg.scoped()), nil
}
