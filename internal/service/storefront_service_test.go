package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-filesearch-be/internal/dto"
	"ai-filesearch-be/internal/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorefrontFixture(t *testing.T, handler http.Handler) (IStorefrontService, *fakeTracker) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	tracker := &fakeTracker{}
	return NewStorefrontService(newMemoryCartRepository(), newTestGeminiClient(server), tracker), tracker
}

func TestProductsFilter(t *testing.T) {
	svc, _ := newStorefrontFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"no query returns full catalog", "", 8},
		{"category match", "electronics", 4},
		{"name match case-insensitive", "WATCH", 1},
		{"description match", "noise cancellation", 1},
		{"no match", "spaceship", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products := svc.Products(tt.query)
			require.NotNil(t, products)
			assert.Len(t, products, tt.want)
		})
	}
}

func TestAddItemMergesQuantities(t *testing.T) {
	svc, tracker := newStorefrontFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "device-1", &dto.AddCartItemRequest{ProductId: 1, Quantity: 2})
	require.NoError(t, err)

	cart, err := svc.AddItem(ctx, "device-1", &dto.AddCartItemRequest{ProductId: 1, Quantity: 3})
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, 5, cart.ItemCount)
	assert.InDelta(t, 5*99.99, cart.Subtotal, 0.001)
	assert.Contains(t, tracker.tracked(), "Product Added to Cart")
}

func TestAddItemDefaultsQuantityToOne(t *testing.T) {
	svc, _ := newStorefrontFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	cart, err := svc.AddItem(context.Background(), "device-2", &dto.AddCartItemRequest{ProductId: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Items[0].Quantity)
}

func TestAddItemUnknownProduct(t *testing.T) {
	svc, _ := newStorefrontFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	_, err := svc.AddItem(context.Background(), "device-3", &dto.AddCartItemRequest{ProductId: 999})
	var notFound *apperror.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestUpdateItem(t *testing.T) {
	svc, _ := newStorefrontFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "device-4", &dto.AddCartItemRequest{ProductId: 2, Quantity: 1})
	require.NoError(t, err)

	cart, err := svc.UpdateItem(ctx, "device-4", 2, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[0].Quantity)

	// Quantity zero removes the line.
	cart, err = svc.UpdateItem(ctx, "device-4", 2, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, err = svc.UpdateItem(ctx, "device-4", 2, 1)
	var notFound *apperror.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestRemoveItemAndClear(t *testing.T) {
	svc, _ := newStorefrontFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "device-5", &dto.AddCartItemRequest{ProductId: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "device-5", &dto.AddCartItemRequest{ProductId: 2})
	require.NoError(t, err)

	cart, err := svc.RemoveItem(ctx, "device-5", 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].ProductId)

	require.NoError(t, svc.ClearCart(ctx, "device-5"))
	cart, err = svc.Cart(ctx, "device-5")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartsAreIsolatedPerDevice(t *testing.T) {
	svc, _ := newStorefrontFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "device-a", &dto.AddCartItemRequest{ProductId: 1})
	require.NoError(t, err)

	cart, err := svc.Cart(ctx, "device-b")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestAnalyzeCartEmpty(t *testing.T) {
	svc, _ := newStorefrontFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	_, err := svc.AnalyzeCart(context.Background(), "device-6")
	var valErr *apperror.ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestAnalyzeCart(t *testing.T) {
	svc, tracker := newStorefrontFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"A tech-focused shopper."}]}}],"usageMetadata":{"totalTokenCount":30}}`))
	}))
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "device-7", &dto.AddCartItemRequest{ProductId: 1, Quantity: 2})
	require.NoError(t, err)

	res, err := svc.AnalyzeCart(ctx, "device-7")
	require.NoError(t, err)
	assert.Equal(t, "A tech-focused shopper.", res.Summary)
	assert.Equal(t, 30, res.TokenCount)
	assert.Contains(t, tracker.tracked(), "Cart Analyzed")
}
