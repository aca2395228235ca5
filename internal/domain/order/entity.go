// internal/domain/order/entity.go
package order

import (
	"time"

	"gorm.io/gorm"
)

// OrderStatus represents the order status
type OrderStatus string

const (
	// OrderStatusPending is the initial status, set at creation while payment
	// is outstanding.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusCompleted marks a verified-paid order. Terminal for the
	// payment workflow; re-verification of a completed order is a no-op.
	OrderStatusCompleted OrderStatus = "completed"

	// Fulfillment statuses, reachable only through the admin update operation.
	// Orthogonal to payment verification.
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
)

// FulfillmentStatuses lists the statuses the admin operation may set
var FulfillmentStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
}

// IsValidFulfillmentStatus reports whether s is one of the admin-settable statuses
func IsValidFulfillmentStatus(s OrderStatus) bool {
	for _, valid := range FulfillmentStatuses {
		if s == valid {
			return true
		}
	}
	return false
}

// Order represents a placed order. TotalAmount and the item prices are frozen
// at creation time; later catalog price changes never affect an existing order.
type Order struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UserID           uint           `gorm:"not null;index" json:"user_id"`
	TotalAmount      int64          `gorm:"not null" json:"total_amount"` // Minor currency units
	Status           OrderStatus    `gorm:"not null;default:'pending';size:20" json:"status"`
	ShippingAddress  string         `gorm:"not null;type:text" json:"shipping_address"`
	PaymentReference string         `gorm:"uniqueIndex;not null;size:100" json:"payment_reference"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// OrderItem is the immutable audit record of one product's quantity and price
// within a placed order. Created once, never mutated.
type OrderItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	UnitPrice int64     `gorm:"not null" json:"unit_price"` // Price per unit at time of purchase
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides
func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }

// IsPaid reports whether payment has been verified for this order
func (o *Order) IsPaid() bool {
	return o.Status != OrderStatusPending
}
