package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-price-service/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BuildItem converts a decoded catalog item into a storable row. Price and date failures
// are reported as ErrInvalidItem; an unreadable unit price is kept as unknown.
func BuildItem(storePK int64, ci *model.CatalogItem, source string, now time.Time) (*model.Item, error) {
	priceDate, err := time.Parse(PriceDateLayout, strings.TrimSpace(ci.PriceUpdateDate))
	if err != nil {
		return nil, fmt.Errorf("%w: item %s: price date %q", ErrInvalidItem, ci.ItemCode, ci.PriceUpdateDate)
	}

	price, err := decimal.NewFromString(strings.TrimSpace(ci.ItemPrice))
	if err != nil {
		return nil, fmt.Errorf("%w: item %s: price %q", ErrInvalidItem, ci.ItemCode, ci.ItemPrice)
	}

	var unitPrice decimal.NullDecimal
	if ci.UnitOfMeasurePrice != nil {
		if d, err := decimal.NewFromString(strings.TrimSpace(*ci.UnitOfMeasurePrice)); err == nil {
			unitPrice = decimal.NewNullDecimal(d)
		}
	}

	return &model.Item{
		ID:                          uuid.New().String(),
		StorePK:                     storePK,
		ItemCode:                    ci.ItemCode,
		ItemType:                    ci.ItemType,
		ItemName:                    ci.ItemName,
		ManufacturerName:            ci.ManufacturerName,
		ManufactureCountry:          ci.ManufactureCountry,
		ManufacturerItemDescription: ci.ManufacturerItemDescription,
		UnitQty:                     ci.UnitQty,
		Quantity:                    ci.Quantity,
		UnitOfMeasure:               ci.UnitOfMeasure,
		IsWeighted:                  ci.IsWeighted,
		QtyInPackage:                ci.QtyInPackage,
		ItemPrice:                   price,
		UnitOfMeasurePrice:          unitPrice,
		AllowDiscount:               ci.AllowDiscount,
		ItemStatus:                  ci.ItemStatus,
		PriceUpdateDate:             priceDate,
		FileSource:                  source,
		ProcessedAt:                 now,
	}, nil
}
