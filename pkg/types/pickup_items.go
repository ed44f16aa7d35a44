package types

import "github.com/shopspring/decimal"

// SellerItem is one line of a seller pickup manifest.
type SellerItem struct {
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
}

// ShoppingItem is one line of a personal shopping order. IsDelivered flips
// when a completion attempt delivers the item; it never flips back.
type ShoppingItem struct {
	ItemName    string          `json:"item_name"`
	Value       decimal.Decimal `json:"value"`
	IsDelivered bool            `json:"is_delivered"`
}

// StringList is a JSON-serialized list of route names.
type StringList []string
