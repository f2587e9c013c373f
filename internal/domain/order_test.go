package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusProcessing, StatusDelivered, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, true},
		{StatusShipped, StatusProcessing, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusDelivered, StatusShipped, false},
		{StatusCancelled, StatusProcessing, false},
		{StatusCancelled, StatusShipped, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestTerminal(t *testing.T) {
	assert.False(t, StatusProcessing.Terminal())
	assert.False(t, StatusShipped.Terminal())
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusProcessing.Valid())
	assert.True(t, StatusCancelled.Valid())
	assert.False(t, OrderStatus("Refunded").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestOrderItemLookup(t *testing.T) {
	o := Order{Items: []OrderItem{
		{ID: "i1", VendorID: "v1"},
		{ID: "i2", VendorID: "v2"},
		{ID: "i3", VendorID: "v1"},
	}}

	assert.Nil(t, o.Item("missing"))
	if item := o.Item("i2"); assert.NotNil(t, item) {
		assert.Equal(t, "v2", item.VendorID)
	}

	v1 := o.ItemsForVendor("v1")
	assert.Len(t, v1, 2)
	assert.Empty(t, o.ItemsForVendor("v3"))
}
