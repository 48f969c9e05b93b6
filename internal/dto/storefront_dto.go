package dto

type AddCartItemRequest struct {
	ProductId int `json:"product_id" validate:"required"`
	Quantity  int `json:"quantity" validate:"omitempty,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

type CartItemResponse struct {
	ProductId int     `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	LineTotal float64 `json:"line_total"`
}

type CartResponse struct {
	Items     []CartItemResponse `json:"items"`
	ItemCount int                `json:"item_count"`
	Subtotal  float64            `json:"subtotal"`
}

type CartAnalysisResponse struct {
	Summary    string   `json:"summary"`
	TokenCount int      `json:"tokenCount"`
	Usage      UsageDTO `json:"usage"`
}
