package analytics

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/tillcore-backend/api/middleware"
	"github.com/angelmondragon/tillcore-backend/api/responses"
	"github.com/angelmondragon/tillcore-backend/api/validators"
	"github.com/angelmondragon/tillcore-backend/internal/analytics"
	"github.com/angelmondragon/tillcore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
	"github.com/angelmondragon/tillcore-backend/pkg/logger"
)

const (
	defaultBestSellers = 10
	maxBestSellers     = 50
)

// Dashboard returns the scoped sales dashboard. Query: preset (7d|30d|90d)
// or from/to RFC3339, rank_by, limit, series_days, branch_id, staff_id.
func Dashboard(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return DashboardWithClock(svc, logg, time.Now)
}

func DashboardWithClock(svc analytics.Service, logg *logger.Logger, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}
		actor, err := middleware.RequireActor(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		query := r.URL.Query()
		rg, err := analytics.ResolveRange(query.Get("preset"), query.Get("from"), query.Get("to"), now())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rankBy := enums.RankByQuantity
		if raw := strings.TrimSpace(query.Get("rank_by")); raw != "" {
			rankBy, err = enums.ParseRankBy(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rank_by"))
				return
			}
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultBestSellers, 1, maxBestSellers)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		seriesDays, err := validators.ParseQueryInt(r, "series_days", 0, 0, 366)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		filter, err := validators.ParseFilter(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dashboard, err := svc.Dashboard(ctx, actor, analytics.Request{
			Filter:     filter,
			Range:      rg,
			SeriesDays: seriesDays,
			RankBy:     rankBy,
			Limit:      limit,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dashboard)
	}
}
