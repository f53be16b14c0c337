package service

import (
	"context"
	"strings"
	"testing"

	"storefront/internal/models"
	"storefront/internal/seed"
	"storefront/internal/store"
	"storefront/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSeedsEmptyCatalog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	products := f.catalog.List(ctx)
	assert.Equal(t, seed.Products(), products)

	records := store.ReadJSON[[]models.ProductRecord](ctx, f.kv, store.KeyProducts, nil)
	require.Len(t, records, len(products))
	assert.Equal(t, "TC001", records[0].Code)
	assert.False(t, strings.HasPrefix(records[0].Image, "/"))
}

func TestLoadMergesStoredRecordsOverSeed(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	require.NoError(t, kv.Set(ctx, store.KeyProducts, []byte(`[
		{"codigo":"TC001","nombre":"Torta Cuadrada de Chocolate","precio":"47000","stock":"2","stockCritico":3,"imagen":"img/tc001.png"},
		{"code":"NEW01","name":"Kuchen de Manzana","price":12000,"stock":4,"critical_stock":1,"image":"img/kuchen.png","category":"Tortas Tradicionales"},
		{"precio":1000}
	]`)))

	f := newFixtureWithKV(t, kv)
	products := f.catalog.List(ctx)

	require.Len(t, products, len(seed.Products())+1)

	tc, ok := f.catalog.Get(ctx, "TC001")
	require.True(t, ok)
	assert.Equal(t, int64(47000), tc.Price)
	assert.Equal(t, 2, tc.Stock)
	assert.True(t, tc.IsCritical())
	assert.Equal(t, "/img/tc001.png", tc.Image)
	assert.Equal(t, "TC001", products[0].ID)

	last := products[len(products)-1]
	assert.Equal(t, "NEW01", last.ID)
	assert.Equal(t, "Tortas Tradicionales", last.Category)
}

func TestNormalizeProduct(t *testing.T) {
	tests := []struct {
		name     string
		raw      map[string]interface{}
		expected models.Product
		ok       bool
	}{
		{
			name:     "persisted shape",
			raw:      map[string]interface{}{"code": "P1", "name": "Pie", "price": float64(3000), "stock": float64(5), "critical_stock": float64(1), "image": "img/p1.png", "description": "rico"},
			expected: models.Product{ID: "P1", Name: "Pie", Price: 3000, Stock: 5, CriticalStock: 1, Image: "/img/p1.png", Description: "rico"},
			ok:       true,
		},
		{
			name:     "legacy aliases",
			raw:      map[string]interface{}{"id": "P2", "title": "Kuchen", "precio": "2500", "categoria": "Postres", "atributo": "Individual", "picture": "/img/k.png", "longDesc": "largo"},
			expected: models.Product{ID: "P2", Name: "Kuchen", Price: 2500, Category: "Postres", Attr: "Individual", Image: "/img/k.png", Description: "largo"},
			ok:       true,
		},
		{
			name:     "name as identifier",
			raw:      map[string]interface{}{"nombre": "Brownie"},
			expected: models.Product{ID: "Brownie", Name: "Brownie"},
			ok:       true,
		},
		{
			name:     "garbage numbers become zero and negatives are clamped",
			raw:      map[string]interface{}{"id": "P3", "price": "abc", "stock": float64(-4)},
			expected: models.Product{ID: "P3", Name: "P3"},
			ok:       true,
		},
		{
			name: "no identifier",
			raw:  map[string]interface{}{"price": float64(1000)},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeProduct(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestUpsertProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.catalog.Upsert(ctx, models.Product{Name: "Sin código"})
	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "id")

	saved, err := f.catalog.Upsert(ctx, models.Product{ID: "NEW01", Name: "Kuchen", Price: -1, Stock: 3, Image: "img/kuchen.png"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), saved.Price)
	assert.Equal(t, "/img/kuchen.png", saved.Image)

	records := store.ReadJSON[[]models.ProductRecord](ctx, f.kv, store.KeyProducts, nil)
	assert.Equal(t, "NEW01", records[len(records)-1].Code)
	assert.Equal(t, "img/kuchen.png", records[len(records)-1].Image)

	assert.False(t, f.catalog.Remove(ctx, "MISSING"))
}
