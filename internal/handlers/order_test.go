package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/reset-corp/reset-backend/internal/models"
)

func productFixture(name string, price float64, stock int) *models.Product {
	p := &models.Product{Name: name, Price: price, Stock: stock}
	p.ID = bson.NewObjectID()
	return p
}

func TestBuildOrderItemsUsesLivePrices(t *testing.T) {
	widget := productFixture("Widget", 19.99, 10)
	gadget := productFixture("Gadget", 5.00, 10)
	products := map[bson.ObjectID]*models.Product{widget.ID: widget, gadget.ID: gadget}

	items, short := buildOrderItems(products, []orderItemRequest{
		{ProductID: widget.ID.Hex(), Quantity: 2},
		{ProductID: gadget.ID.Hex(), Quantity: 3},
	})

	require.Empty(t, short)
	require.Len(t, items, 2)
	assert.Equal(t, 19.99, items[0].Price)
	assert.InDelta(t, 54.98, models.ComputeTotal(items), 0.001)
}

func TestBuildOrderItemsDefaultsQuantity(t *testing.T) {
	widget := productFixture("Widget", 10, 5)
	products := map[bson.ObjectID]*models.Product{widget.ID: widget}

	items, short := buildOrderItems(products, []orderItemRequest{
		{ProductID: widget.ID.Hex(), Quantity: 0},
	})

	require.Empty(t, short)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestBuildOrderItemsReportsShortStock(t *testing.T) {
	widget := productFixture("Widget", 10, 1)
	products := map[bson.ObjectID]*models.Product{widget.ID: widget}

	items, short := buildOrderItems(products, []orderItemRequest{
		{ProductID: widget.ID.Hex(), Quantity: 3},
	})

	assert.Empty(t, items)
	require.Len(t, short, 1)
	assert.Equal(t, 3, short[0].Requested)
	assert.Equal(t, 1, short[0].Available)
	assert.Equal(t, "Widget", short[0].Name)
}

func TestValidateBillingAddress(t *testing.T) {
	ve := validateBillingAddress(models.BillingAddress{})
	require.NotNil(t, ve)
	assert.Len(t, ve.Fields, 4)

	ve = validateBillingAddress(models.BillingAddress{
		FullName:    "Sam Doe",
		Phone:       "555-1234",
		AddressLine: "1 Main St",
		City:        "Springfield",
	})
	assert.Nil(t, ve)
}

func TestGenerateOrderNumberFormat(t *testing.T) {
	n := generateOrderNumber()
	assert.Regexp(t, `^RST-\d{8}-\d{6}$`, n)
}
