package models

import "time"

type OrderStatus string

const (
	OrderStatusPending          OrderStatus = "pending"
	OrderStatusConfirmed        OrderStatus = "confirmed"
	OrderStatusPreparing        OrderStatus = "preparing"
	OrderStatusReadyForDelivery OrderStatus = "ready_for_delivery"
	OrderStatusInTransit        OrderStatus = "in_transit"
	OrderStatusDelivered        OrderStatus = "delivered"
	OrderStatusCancelled        OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

type PaymentMethod string

const (
	PaymentMethodCash  PaymentMethod = "cash"
	PaymentMethodCard  PaymentMethod = "card"
	PaymentMethodPayme PaymentMethod = "payme"
	PaymentMethodClick PaymentMethod = "click"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodPayme, PaymentMethodClick:
		return true
	}
	return false
}

// CartItem is a snapshot of a product line at checkout time.
type CartItem struct {
	ProductID string  `bson:"productId" json:"productId"`
	Title     string  `bson:"title" json:"title"`
	Slug      string  `bson:"slug" json:"slug"`
	Price     float64 `bson:"price" json:"price"`
	Qty       int     `bson:"qty" json:"qty"`
	Color     string  `bson:"color,omitempty" json:"color,omitempty"`
	Size      string  `bson:"size,omitempty" json:"size,omitempty"`
	Image     string  `bson:"image" json:"image"`
}

type Totals struct {
	Subtotal float64 `bson:"subtotal" json:"subtotal"`
	Shipping float64 `bson:"shipping" json:"shipping"`
	Tax      float64 `bson:"tax" json:"tax"`
	Total    float64 `bson:"total" json:"total"`
}

type Coordinates struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Address is a free-form shipping address.
type Address struct {
	Label       string       `bson:"label,omitempty" json:"label,omitempty"`
	Street      string       `bson:"street,omitempty" json:"street,omitempty"`
	City        string       `bson:"city,omitempty" json:"city,omitempty"`
	District    string       `bson:"district,omitempty" json:"district,omitempty"`
	Building    string       `bson:"building,omitempty" json:"building,omitempty"`
	Apartment   string       `bson:"apartment,omitempty" json:"apartment,omitempty"`
	Phone       string       `bson:"phone,omitempty" json:"phone,omitempty"`
	Coordinates *Coordinates `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
}

type Delivery struct {
	Coordinates   *Coordinates `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
	Address       Address      `bson:"address" json:"address"`
	EstimatedTime *time.Time   `bson:"estimatedTime,omitempty" json:"estimatedTime,omitempty"`
	CourierID     string       `bson:"courierId,omitempty" json:"courierId,omitempty"`
	CourierName   string       `bson:"courierName,omitempty" json:"courierName,omitempty"`
	CourierPhone  string       `bson:"courierPhone,omitempty" json:"courierPhone,omitempty"`
	Instructions  string       `bson:"instructions,omitempty" json:"instructions,omitempty"`
}

// StatusChange records when an order entered a status.
type StatusChange struct {
	Status OrderStatus `bson:"status" json:"status"`
	At     time.Time   `bson:"at" json:"at"`
}

// Order defines the persisted order document.
type Order struct {
	ID              string         `bson:"_id" json:"id"`
	UserID          string         `bson:"userId" json:"userId"`
	Items           []CartItem     `bson:"items" json:"items"`
	Totals          Totals         `bson:"totals" json:"totals"`
	Status          OrderStatus    `bson:"status" json:"status"`
	Address         Address        `bson:"address" json:"address"`
	Delivery        Delivery       `bson:"delivery" json:"delivery"`
	PaymentStatus   PaymentStatus  `bson:"paymentStatus" json:"paymentStatus"`
	PaymentMethod   PaymentMethod  `bson:"paymentMethod" json:"paymentMethod"`
	PaymentIntentID string         `bson:"paymentIntentId,omitempty" json:"paymentIntentId,omitempty"`
	PaidAt          *time.Time     `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	Notes           string         `bson:"notes,omitempty" json:"notes,omitempty"`
	StatusHistory   []StatusChange `bson:"statusHistory" json:"statusHistory"`
	CreatedAt       time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// HasCourier reports whether a courier has been assigned to the order.
func (o *Order) HasCourier() bool {
	return o.Delivery.CourierID != ""
}
