package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-price-service/internal/item/dto"
	"github.com/fekuna/omnipos-price-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Search(ctx context.Context, f *dto.ItemFilters) ([]model.ItemListing, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.SearchQuery != "" {
		conditions = append(conditions, "(i.item_name ILIKE :search OR i.item_code = :code OR i.manufacturer_name ILIKE :search)")
		args["search"] = "%" + escapeLike(f.SearchQuery) + "%"
		args["code"] = f.SearchQuery
	}
	if f.ChainID != "" {
		conditions = append(conditions, "s.chain_id = :chain_id")
		args["chain_id"] = f.ChainID
	}
	if f.City != "" {
		conditions = append(conditions, "s.city ILIKE :city")
		args["city"] = escapeLike(f.City)
	}
	if f.Manufacturer != "" {
		conditions = append(conditions, "i.manufacturer_name ILIKE :manufacturer")
		args["manufacturer"] = "%" + escapeLike(f.Manufacturer) + "%"
	}
	if f.MinPrice != nil {
		conditions = append(conditions, "i.item_price >= :min_price")
		args["min_price"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		conditions = append(conditions, "i.item_price <= :max_price")
		args["max_price"] = *f.MaxPrice
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}
	from := " FROM items i JOIN stores s ON s.id = i.store_pk" + whereClause

	var count int
	countQuery, countArgs, err := r.DB.BindNamed("SELECT count(*)"+from, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	// Whitelisted to keep user input out of ORDER BY.
	orderBy := "i.price_update_date"
	switch f.SortBy {
	case "price":
		orderBy = "i.item_price"
	case "name":
		orderBy = "i.item_name"
	}
	if f.SortOrder == "asc" {
		orderBy += " ASC"
	} else {
		orderBy += " DESC"
	}

	query := `SELECT i.id, i.item_code, i.item_name, i.manufacturer_name, i.unit_of_measure,
            i.item_price, i.price_update_date, s.id AS store_pk, s.chain_id, s.sub_chain_id,
            s.store_id, s.city` + from + fmt.Sprintf(" ORDER BY %s, i.id", orderBy)
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	listQuery, listArgs, err := r.DB.BindNamed(query, args)
	if err != nil {
		return nil, 0, err
	}
	items := []model.ItemListing{}
	if err := r.DB.SelectContext(ctx, &items, listQuery, listArgs...); err != nil {
		return nil, 0, fmt.Errorf("search items: %w", err)
	}
	return items, count, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
