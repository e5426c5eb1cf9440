package rabbit

// Routing keys publicados por el servicio
const (
	RKUserCreated = "user.created"
	RKBookCreated = "book.created"
	RKOrderPlaced = "order.placed"
)

type UserCreatedPayload struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type BookCreatedPayload struct {
	BookID   int64  `json:"book_id"`
	Title    string `json:"title"`
	SellerID int64  `json:"seller_id"`
}

type OrderPlacedPayload struct {
	OrderID    int64          `json:"order_id"`
	BuyerID    int64          `json:"buyer_id"`
	Items      []OrderItemEvt `json:"items"`
	TotalCents int64          `json:"total_cents"`
}

type OrderItemEvt struct {
	BookID    int64  `json:"book_id"`
	Title     string `json:"title"`
	Qty       int32  `json:"qty"`
	UnitCents int64  `json:"unit_cents"`
	LineCents int64  `json:"line_cents"`
}
