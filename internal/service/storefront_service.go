package service

import (
	"context"
	"fmt"
	"strings"

	"ai-filesearch-be/internal/dto"
	"ai-filesearch-be/internal/entity"
	"ai-filesearch-be/internal/pkg/apperror"
	"ai-filesearch-be/internal/repository/contract"
	"ai-filesearch-be/pkg/analytics"
	"ai-filesearch-be/pkg/gemini"
)

// catalog is the fixed demo inventory. There is no product admin; the
// storefront exists to generate realistic analytics traffic.
var catalog = []entity.Product{
	{Id: 1, Name: "Wireless Headphones", Price: 99.99, Category: "Electronics", Description: "High-quality wireless headphones with noise cancellation and 30-hour battery life.", Image: "🎧"},
	{Id: 2, Name: "Smart Watch", Price: 249.99, Category: "Electronics", Description: "Advanced smartwatch with health monitoring, GPS, and water resistance.", Image: "⌚"},
	{Id: 3, Name: "Coffee Maker", Price: 79.99, Category: "Home", Description: "Programmable coffee maker with built-in grinder and thermal carafe.", Image: "☕"},
	{Id: 4, Name: "Yoga Mat", Price: 29.99, Category: "Fitness", Description: "Premium non-slip yoga mat with carrying strap and alignment lines.", Image: "🧘"},
	{Id: 5, Name: "Bluetooth Speaker", Price: 59.99, Category: "Electronics", Description: "Portable Bluetooth speaker with 360-degree sound and waterproof design.", Image: "🔊"},
	{Id: 6, Name: "Desk Lamp", Price: 45.99, Category: "Home", Description: "LED desk lamp with adjustable brightness and USB charging port.", Image: "💡"},
	{Id: 7, Name: "Water Bottle", Price: 19.99, Category: "Fitness", Description: "Insulated stainless steel water bottle that keeps drinks cold for 24 hours.", Image: "🍶"},
	{Id: 8, Name: "Phone Case", Price: 24.99, Category: "Electronics", Description: "Protective phone case with shock absorption and wireless charging compatibility.", Image: "📱"},
}

type IStorefrontService interface {
	Products(query string) []entity.Product
	Cart(ctx context.Context, deviceId string) (*dto.CartResponse, error)
	AddItem(ctx context.Context, deviceId string, req *dto.AddCartItemRequest) (*dto.CartResponse, error)
	UpdateItem(ctx context.Context, deviceId string, productId, quantity int) (*dto.CartResponse, error)
	RemoveItem(ctx context.Context, deviceId string, productId int) (*dto.CartResponse, error)
	ClearCart(ctx context.Context, deviceId string) error
	AnalyzeCart(ctx context.Context, deviceId string) (*dto.CartAnalysisResponse, error)
}

type storefrontService struct {
	cartRepo contract.ICartRepository
	client   *gemini.Client
	tracker  analytics.ITracker
}

func NewStorefrontService(cartRepo contract.ICartRepository, client *gemini.Client, tracker analytics.ITracker) IStorefrontService {
	return &storefrontService{
		cartRepo: cartRepo,
		client:   client,
		tracker:  tracker,
	}
}

// Products returns the catalog, filtered by a case-insensitive match over
// name, description and category when a query is given.
func (s *storefrontService) Products(query string) []entity.Product {
	if query == "" {
		return catalog
	}
	lower := strings.ToLower(query)
	var filtered []entity.Product
	for _, product := range catalog {
		if strings.Contains(strings.ToLower(product.Name), lower) ||
			strings.Contains(strings.ToLower(product.Description), lower) ||
			strings.Contains(strings.ToLower(product.Category), lower) {
			filtered = append(filtered, product)
		}
	}
	if filtered == nil {
		return []entity.Product{}
	}
	return filtered
}

func findProduct(productId int) (entity.Product, bool) {
	for _, product := range catalog {
		if product.Id == productId {
			return product, true
		}
	}
	return entity.Product{}, false
}

func (s *storefrontService) Cart(ctx context.Context, deviceId string) (*dto.CartResponse, error) {
	items, err := s.cartRepo.Get(ctx, deviceId)
	if err != nil {
		return nil, err
	}
	return mapCart(items), nil
}

func (s *storefrontService) AddItem(ctx context.Context, deviceId string, req *dto.AddCartItemRequest) (*dto.CartResponse, error) {
	product, ok := findProduct(req.ProductId)
	if !ok {
		return nil, &apperror.NotFoundError{Resource: fmt.Sprintf("product %d", req.ProductId)}
	}
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	items, err := s.cartRepo.Get(ctx, deviceId)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range items {
		if items[i].ProductId == product.Id {
			items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, entity.CartItem{
			ProductId: product.Id,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  quantity,
		})
	}

	if err := s.cartRepo.Save(ctx, deviceId, items); err != nil {
		return nil, err
	}

	s.tracker.Track("Product Added to Cart", map[string]interface{}{
		"product_id":   product.Id,
		"product_name": product.Name,
		"quantity":     quantity,
	})
	return mapCart(items), nil
}

func (s *storefrontService) UpdateItem(ctx context.Context, deviceId string, productId, quantity int) (*dto.CartResponse, error) {
	items, err := s.cartRepo.Get(ctx, deviceId)
	if err != nil {
		return nil, err
	}

	updated := items[:0]
	found := false
	for _, item := range items {
		if item.ProductId == productId {
			found = true
			if quantity <= 0 {
				continue // quantity zero removes the line
			}
			item.Quantity = quantity
		}
		updated = append(updated, item)
	}
	if !found {
		return nil, &apperror.NotFoundError{Resource: fmt.Sprintf("cart item %d", productId)}
	}

	if err := s.cartRepo.Save(ctx, deviceId, updated); err != nil {
		return nil, err
	}
	return mapCart(updated), nil
}

func (s *storefrontService) RemoveItem(ctx context.Context, deviceId string, productId int) (*dto.CartResponse, error) {
	items, err := s.cartRepo.Get(ctx, deviceId)
	if err != nil {
		return nil, err
	}

	remaining := items[:0]
	for _, item := range items {
		if item.ProductId != productId {
			remaining = append(remaining, item)
		}
	}

	if err := s.cartRepo.Save(ctx, deviceId, remaining); err != nil {
		return nil, err
	}

	s.tracker.Track("Product Removed from Cart", map[string]interface{}{
		"product_id": productId,
	})
	return mapCart(remaining), nil
}

func (s *storefrontService) ClearCart(ctx context.Context, deviceId string) error {
	return s.cartRepo.Clear(ctx, deviceId)
}

// AnalyzeCart asks the model for a short shopping-pattern summary of the
// current cart, the backing call for the cart-analysis page.
func (s *storefrontService) AnalyzeCart(ctx context.Context, deviceId string) (*dto.CartAnalysisResponse, error) {
	items, err := s.cartRepo.Get(ctx, deviceId)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperror.NewValidation("cart is empty, nothing to analyze")
	}

	var sb strings.Builder
	sb.WriteString("Analyze this shopping cart and describe the shopper's likely interests and spending pattern in a short paragraph:\n")
	for _, item := range items {
		fmt.Fprintf(&sb, "- %s x%d at $%.2f\n", item.Name, item.Quantity, item.Price)
	}

	contents := []gemini.Content{gemini.NewTextContent(gemini.RoleUser, sb.String())}
	result, err := s.client.GenerateContent(ctx, contents, nil)
	if err != nil {
		return nil, err
	}

	s.tracker.Track("Cart Analyzed", map[string]interface{}{
		"item_count":   len(items),
		"total_tokens": result.Usage.TotalTokens,
	})

	return &dto.CartAnalysisResponse{
		Summary:    result.Text,
		TokenCount: result.Usage.TotalTokens,
		Usage:      mapUsage(result.Usage),
	}, nil
}

func mapCart(items []entity.CartItem) *dto.CartResponse {
	res := &dto.CartResponse{Items: []dto.CartItemResponse{}}
	for _, item := range items {
		lineTotal := item.Price * float64(item.Quantity)
		res.Items = append(res.Items, dto.CartItemResponse{
			ProductId: item.ProductId,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			LineTotal: lineTotal,
		})
		res.ItemCount += item.Quantity
		res.Subtotal += lineTotal
	}
	return res
}
