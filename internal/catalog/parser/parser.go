// Package parser decodes catalog price files into model.Catalog values.
//
// Decoding is pure: no business validation happens here. Required elements must be
// present and typed correctly, optional elements become nil when absent or empty.
package parser

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fekuna/omnipos-price-service/internal/catalog"
	"github.com/fekuna/omnipos-price-service/internal/model"
	"golang.org/x/net/html/charset"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// The root element name differs between chains, so xmlCatalog has no XMLName.
type xmlCatalog struct {
	ChainID    *string   `xml:"ChainId"`
	SubChainID *string   `xml:"SubChainId"`
	StoreID    *string   `xml:"StoreId"`
	BikoretNo  *string   `xml:"BikoretNo"`
	Items      *xmlItems `xml:"Items"`
}

type xmlItems struct {
	Items []xmlItem `xml:"Item"`
}

type xmlItem struct {
	PriceUpdateDate             *string `xml:"PriceUpdateDate"`
	ItemCode                    *string `xml:"ItemCode"`
	ItemType                    *string `xml:"ItemType"`
	ItemNm                      *string `xml:"ItemNm"`
	ManufacturerName            *string `xml:"ManufacturerName"`
	ManufactureCountry          *string `xml:"ManufactureCountry"`
	ManufacturerItemDescription *string `xml:"ManufacturerItemDescription"`
	UnitQty                     *string `xml:"UnitQty"`
	Quantity                    *string `xml:"Quantity"`
	UnitOfMeasure               *string `xml:"UnitOfMeasure"`
	IsWeighted                  *string `xml:"bIsWeighted"`
	QtyInPackage                *string `xml:"QtyInPackage"`
	ItemPrice                   *string `xml:"ItemPrice"`
	UnitOfMeasurePrice          *string `xml:"UnitOfMeasurePrice"`
	AllowDiscount               *string `xml:"AllowDiscount"`
	ItemStatus                  *string `xml:"ItemStatus"`
}

// Parse decodes a whole catalog document.
func Parse(content []byte) (*model.Catalog, error) {
	return ParseReader(bytes.NewReader(bytes.TrimPrefix(content, utf8BOM)))
}

func ParseReader(r io.Reader) (*model.Catalog, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var doc xmlCatalog
	if err := dec.Decode(&doc); err != nil {
		return nil, malformed("decode: %v", err)
	}
	return convert(&doc)
}

func convert(doc *xmlCatalog) (*model.Catalog, error) {
	chainID, err := requiredString("ChainId", doc.ChainID)
	if err != nil {
		return nil, err
	}
	subChainID, err := requiredInt("SubChainId", doc.SubChainID)
	if err != nil {
		return nil, err
	}
	storeID, err := requiredInt("StoreId", doc.StoreID)
	if err != nil {
		return nil, err
	}
	bikoretNo, err := optionalInt("BikoretNo", doc.BikoretNo)
	if err != nil {
		return nil, err
	}
	if doc.Items == nil {
		return nil, malformed("missing Items")
	}

	out := &model.Catalog{
		Store: model.StoreIdentity{
			ChainID:    chainID,
			SubChainID: subChainID,
			StoreID:    storeID,
		},
		BikoretNo: bikoretNo,
		Items:     make([]model.CatalogItem, 0, len(doc.Items.Items)),
	}

	for i := range doc.Items.Items {
		item, err := convertItem(&doc.Items.Items[i])
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out.Items = append(out.Items, *item)
	}
	return out, nil
}

func convertItem(x *xmlItem) (*model.CatalogItem, error) {
	var (
		it  model.CatalogItem
		err error
	)
	if it.PriceUpdateDate, err = requiredString("PriceUpdateDate", x.PriceUpdateDate); err != nil {
		return nil, err
	}
	if it.ItemCode, err = requiredString("ItemCode", x.ItemCode); err != nil {
		return nil, err
	}
	if it.ItemType, err = requiredInt("ItemType", x.ItemType); err != nil {
		return nil, err
	}
	if it.ItemName, err = requiredString("ItemNm", x.ItemNm); err != nil {
		return nil, err
	}
	if it.ItemPrice, err = requiredString("ItemPrice", x.ItemPrice); err != nil {
		return nil, err
	}
	if it.IsWeighted, err = optionalInt("bIsWeighted", x.IsWeighted); err != nil {
		return nil, err
	}
	if it.AllowDiscount, err = optionalInt("AllowDiscount", x.AllowDiscount); err != nil {
		return nil, err
	}
	if it.ItemStatus, err = optionalInt("ItemStatus", x.ItemStatus); err != nil {
		return nil, err
	}

	it.ManufacturerName = optionalString(x.ManufacturerName)
	it.ManufactureCountry = optionalString(x.ManufactureCountry)
	it.ManufacturerItemDescription = optionalString(x.ManufacturerItemDescription)
	it.UnitQty = optionalString(x.UnitQty)
	it.Quantity = optionalString(x.Quantity)
	it.UnitOfMeasure = optionalString(x.UnitOfMeasure)
	it.QtyInPackage = optionalString(x.QtyInPackage)
	it.UnitOfMeasurePrice = optionalString(x.UnitOfMeasurePrice)
	return &it, nil
}

func requiredString(field string, v *string) (string, error) {
	s := optionalString(v)
	if s == nil {
		return "", malformed("missing required field %s", field)
	}
	return *s, nil
}

func requiredInt(field string, v *string) (int, error) {
	s, err := requiredString(field, v)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, malformed("field %s: %q is not an integer", field, s)
	}
	return n, nil
}

func optionalString(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}

func optionalInt(field string, v *string) (*int, error) {
	s := optionalString(v)
	if s == nil {
		return nil, nil
	}
	n, err := strconv.Atoi(*s)
	if err != nil {
		return nil, malformed("field %s: %q is not an integer", field, *s)
	}
	return &n, nil
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", catalog.ErrMalformedCatalog, fmt.Sprintf(format, args...))
}
