package models

// APIResponse is the standard JSON envelope for all API responses.
type APIResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

// Meta contains list metadata.
type Meta struct {
	Total int `json:"total,omitempty"`
}

// Roles a user account can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// LowStockThreshold is the quantity below which a product is flagged as low stock.
const LowStockThreshold = 5

// User is an account as exposed outside the store. The credential hash never leaves the store.
type User struct {
	ID       int64  `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	Role     string `json:"role" db:"role"`
}

// IsAdmin reports whether the account holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// UserUpdate carries the fields of a partial user update. Nil fields are left unchanged.
type UserUpdate struct {
	Password *string `json:"password,omitempty"`
	Role     *string `json:"role,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool { return u.Password == nil && u.Role == nil }

type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Product is a full products row.
type Product struct {
	ID         int64   `json:"id" db:"id"`
	Name       string  `json:"name" db:"name"`
	CategoryID *int64  `json:"category_id" db:"category_id"`
	SKU        string  `json:"sku" db:"sku"`
	Price      float64 `json:"price" db:"price"`
	Quantity   int     `json:"quantity" db:"quantity_in_stock"`
	CreatedAt  string  `json:"created_at" db:"created_at"`
}

// ProductInput holds the editable fields of a product.
type ProductInput struct {
	Name       string  `json:"name"`
	CategoryID *int64  `json:"category_id"`
	SKU        string  `json:"sku"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
}

// ProductRow is one line of the product list view.
type ProductRow struct {
	ID       int64   `json:"id" db:"id"`
	Name     string  `json:"name" db:"name"`
	Category *string `json:"category" db:"category"`
	SKU      string  `json:"sku" db:"sku"`
	Price    float64 `json:"price" db:"price"`
	Quantity int     `json:"quantity" db:"quantity_in_stock"`
	LowStock bool    `json:"low_stock" db:"-"`
}

// CategoryName returns the category name or "" when the product has none.
func (p ProductRow) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return *p.Category
}

// ProductFilter narrows a product listing. Zero values mean "no restriction".
type ProductFilter struct {
	Search     string
	CategoryID *int64
}

// ActionLog is one audit trail record.
type ActionLog struct {
	ID          int64  `json:"id" db:"id"`
	Timestamp   string `json:"timestamp" db:"timestamp"`
	Username    string `json:"username" db:"username"`
	Action      string `json:"action" db:"action"`
	ProductName string `json:"product_name" db:"product_name"`
}

// InventoryLog mirrors the inventory_logs table. Nothing writes it yet.
type InventoryLog struct {
	ID        int64  `json:"id" db:"id"`
	ProductID *int64 `json:"product_id" db:"product_id"`
	Change    int    `json:"change" db:"change"`
	Reason    string `json:"reason" db:"reason"`
	Timestamp string `json:"timestamp" db:"timestamp"`
}
