package sales

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/tillcore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tillcore-backend/pkg/errors"
	"github.com/angelmondragon/tillcore-backend/pkg/pagination"
	"github.com/angelmondragon/tillcore-backend/pkg/visibility"
)

// Get loads one sale. Sales outside the actor's scope read as not found.
func (r *Recorder) Get(ctx context.Context, actor visibility.Actor, saleID uuid.UUID) (*SaleDTO, error) {
	scope := visibility.For(actor)
	if scope.DenyAll() {
		return nil, pkgerrors.New(pkgerrors.CodeScopeViolation, "scope denies all access")
	}
	var sale models.Sale
	err := r.db.WithContext(ctx).
		Scopes(scope.Scoped(visibility.SaleColumns)).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("sales.id = ?", saleID).
		First(&sale).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sale")
	}
	dto := FromModel(&sale)
	return &dto, nil
}

// List pages through visible sales, newest first.
func (r *Recorder) List(ctx context.Context, actor visibility.Actor, params ListParams) (pagination.Page[SaleDTO], error) {
	scope, err := narrowed(actor, params.Filter)
	if err != nil {
		return pagination.Page[SaleDTO]{}, err
	}
	cursor, err := pagination.ParseCursor(params.Pagination.Cursor)
	if err != nil {
		return pagination.Page[SaleDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	q := r.db.WithContext(ctx).
		Scopes(scope.Scoped(visibility.SaleColumns), params.Range.scoped()).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
	if cursor != nil {
		at := cursor.CreatedAt.UTC()
		q = q.Where("(sales.created_at < ?) OR (sales.created_at = ? AND sales.id < ?)", at, at, cursor.ID)
	}

	var rows []models.Sale
	if err := q.Order("sales.created_at DESC, sales.id DESC").
		Limit(pagination.LimitWithBuffer(params.Pagination.Limit)).
		Find(&rows).Error; err != nil {
		return pagination.Page[SaleDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}

	dtos := make([]SaleDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, FromModel(&rows[i]))
	}
	return pagination.Paginate(dtos, params.Pagination.Limit, func(s SaleDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: s.CreatedAt, ID: s.ID}
	}), nil
}

func narrowed(actor visibility.Actor, filter visibility.Filter) (visibility.Scope, error) {
	scope := visibility.For(actor)
	if scope.DenyAll() {
		return scope, pkgerrors.New(pkgerrors.CodeScopeViolation, "scope denies all access")
	}
	return scope.Narrow(filter)
}

func (rg Range) validate() error {
	if !rg.From.IsZero() && !rg.To.IsZero() && !rg.From.Before(rg.To) {
		return pkgerrors.New(pkgerrors.CodeValidation, "range start must precede range end")
	}
	return nil
}

func (rg Range) scoped() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !rg.From.IsZero() {
			db = db.Where("sales.created_at >= ?", rg.From.UTC())
		}
		if !rg.To.IsZero() {
			db = db.Where("sales.created_at < ?", rg.To.UTC())
		}
		return db
	}
}
