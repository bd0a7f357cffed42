package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockroom/internal/inventory"
)

func TestSeedDefaultCatalog(t *testing.T) {
	svc := inventory.NewService(inventory.NewMemoryStore(), nil, nil, inventory.ServiceConfig{})

	created, err := seed(context.Background(), svc, defaultCatalog)
	require.NoError(t, err)
	require.Equal(t, len(defaultCatalog), created)

	products, err := svc.Products(context.Background(), "coffee")
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.EqualValues(t, 2, products[0].Quantity)

	sugar, err := svc.Products(context.Background(), "sugar")
	require.NoError(t, err)
	require.EqualValues(t, 12, sugar[0].Quantity)
}

func TestSeedSkipsOversell(t *testing.T) {
	svc := inventory.NewService(inventory.NewMemoryStore(), nil, nil, inventory.ServiceConfig{})
	catalog := []seedProduct{{Code: "7", Name: "Salt", Quantity: 1, Movements: []int64{-3, 2}}}

	created, err := seed(context.Background(), svc, catalog)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	products, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 3, products[0].Quantity)
	require.Zero(t, products[0].StockOutUnits)
}

func TestDecodeCatalog(t *testing.T) {
	items, err := decodeCatalog(strings.NewReader(`[{"code":"1","name":"Tea","quantity":2,"sales_price":"1.5","movements":[-1]}]`))
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "1.5", items[0].SalesPrice.String())

	_, err = decodeCatalog(strings.NewReader(`[]`))
	require.Error(t, err)

	_, err = decodeCatalog(strings.NewReader(`[{"code":"1","colour":"red"}]`))
	require.Error(t, err)
}
