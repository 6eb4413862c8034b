package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/fekuna/omnipos-price-service/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCatalog = `<?xml version="1.0" encoding="utf-8"?>
<root>
  <ChainId>7290027600007</ChainId>
  <SubChainId>001</SubChainId>
  <StoreId>12</StoreId>
  <BikoretNo>9</BikoretNo>
  <Items Count="2">
    <Item>
      <PriceUpdateDate>2025-03-01 06:00:00</PriceUpdateDate>
      <ItemCode>7290000000001</ItemCode>
      <ItemType>1</ItemType>
      <ItemNm>Milk</ItemNm>
      <ManufacturerName>Tnuva</ManufacturerName>
      <ManufactureCountry>IL</ManufactureCountry>
      <UnitOfMeasure>liter</UnitOfMeasure>
      <bIsWeighted>0</bIsWeighted>
      <ItemPrice>3.50</ItemPrice>
      <UnitOfMeasurePrice>3.50</UnitOfMeasurePrice>
      <AllowDiscount>1</AllowDiscount>
      <ItemStatus>1</ItemStatus>
    </Item>
    <Item>
      <PriceUpdateDate>2025-03-01 06:00:00</PriceUpdateDate>
      <ItemCode>7290000000002</ItemCode>
      <ItemType>1</ItemType>
      <ItemNm>Bread</ItemNm>
      <ManufacturerName></ManufacturerName>
      <ItemPrice>-4.25</ItemPrice>
    </Item>
  </Items>
</root>`

func TestParseValidCatalog(t *testing.T) {
	cat, err := Parse([]byte(validCatalog))
	require.NoError(t, err)

	assert.Equal(t, "7290027600007", cat.Store.ChainID)
	assert.Equal(t, 1, cat.Store.SubChainID)
	assert.Equal(t, 12, cat.Store.StoreID)
	require.NotNil(t, cat.BikoretNo)
	assert.Equal(t, 9, *cat.BikoretNo)
	require.Len(t, cat.Items, 2)

	milk := cat.Items[0]
	assert.Equal(t, "2025-03-01 06:00:00", milk.PriceUpdateDate)
	assert.Equal(t, "7290000000001", milk.ItemCode)
	assert.Equal(t, 1, milk.ItemType)
	assert.Equal(t, "Milk", milk.ItemName)
	assert.Equal(t, "3.50", milk.ItemPrice)
	require.NotNil(t, milk.ManufacturerName)
	assert.Equal(t, "Tnuva", *milk.ManufacturerName)
	require.NotNil(t, milk.IsWeighted)
	assert.Equal(t, 0, *milk.IsWeighted)
	require.NotNil(t, milk.AllowDiscount)
	assert.Equal(t, 1, *milk.AllowDiscount)

	bread := cat.Items[1]
	assert.Equal(t, "Bread", bread.ItemName)
	// Business rules such as price sign are left to ingestion.
	assert.Equal(t, "-4.25", bread.ItemPrice)
}

func TestParseOptionalFieldsStayUnknown(t *testing.T) {
	cat, err := Parse([]byte(validCatalog))
	require.NoError(t, err)

	bread := cat.Items[1]
	assert.Nil(t, bread.ManufacturerName, "empty element must not become empty string")
	assert.Nil(t, bread.ManufactureCountry)
	assert.Nil(t, bread.ManufacturerItemDescription)
	assert.Nil(t, bread.UnitQty)
	assert.Nil(t, bread.Quantity)
	assert.Nil(t, bread.UnitOfMeasure)
	assert.Nil(t, bread.IsWeighted, "absent flag must not default to zero")
	assert.Nil(t, bread.QtyInPackage)
	assert.Nil(t, bread.UnitOfMeasurePrice)
	assert.Nil(t, bread.AllowDiscount)
	assert.Nil(t, bread.ItemStatus)
}

func TestParseWithoutBikoret(t *testing.T) {
	doc := strings.Replace(validCatalog, "<BikoretNo>9</BikoretNo>", "", 1)
	cat, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Nil(t, cat.BikoretNo)
}

func TestParseToleratesBOM(t *testing.T) {
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte(validCatalog)...)
	cat, err := Parse(content)
	require.NoError(t, err)
	assert.Len(t, cat.Items, 2)
}

func TestParseMalformed(t *testing.T) {
	cases := map[string]string{
		"missing item code":  strings.Replace(validCatalog, "<ItemCode>7290000000002</ItemCode>", "", 1),
		"missing item name":  strings.Replace(validCatalog, "<ItemNm>Bread</ItemNm>", "", 1),
		"missing price":      strings.Replace(validCatalog, "<ItemPrice>-4.25</ItemPrice>", "", 1),
		"missing price date": strings.Replace(validCatalog, "<PriceUpdateDate>2025-03-01 06:00:00</PriceUpdateDate>\n      <ItemCode>7290000000002", "<ItemCode>7290000000002", 1),
		"missing chain":      strings.Replace(validCatalog, "<ChainId>7290027600007</ChainId>", "", 1),
		"missing items":      strings.Replace(strings.Replace(validCatalog, "<Items Count=\"2\">", "<Other>", 1), "</Items>", "</Other>", 1),
		"store id not int":   strings.Replace(validCatalog, "<StoreId>12</StoreId>", "<StoreId>twelve</StoreId>", 1),
		"item type not int":  strings.Replace(validCatalog, "<ItemType>1</ItemType>\n      <ItemNm>Bread", "<ItemType>x</ItemType>\n      <ItemNm>Bread", 1),
		"flag not int":       strings.Replace(validCatalog, "<bIsWeighted>0</bIsWeighted>", "<bIsWeighted>no</bIsWeighted>", 1),
		"truncated document": validCatalog[:len(validCatalog)/2],
		"empty document":     "",
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, catalog.ErrMalformedCatalog), "got %v", err)
		})
	}
}

func TestParseEmptyItemList(t *testing.T) {
	doc := `<root><ChainId>1</ChainId><SubChainId>1</SubChainId><StoreId>1</StoreId><Items></Items></root>`
	cat, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Empty(t, cat.Items)
}
