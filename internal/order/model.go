package order

import "time"

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
	StatusFailed     OrderStatus = "failed"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	MethodCOD     PaymentMethod = "cod"
	MethodGateway PaymentMethod = "gateway"
)

type TokenStatus string

const (
	TokenPending TokenStatus = "pending"
	TokenPaid    TokenStatus = "paid"
)

type Address struct {
	RecipientName string
	Phone         string
	Email         string
	Line1         string
	Line2         string
	City          string
	State         string
	PostalCode    string
	Country       string
}

// MissingFields lists the structurally required fields that are empty.
// Email and the second address line are optional.
func (a Address) MissingFields() []string {
	var missing []string
	check := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}
	check("recipient_name", a.RecipientName)
	check("phone", a.Phone)
	check("address_line1", a.Line1)
	check("city", a.City)
	check("state", a.State)
	check("postal_code", a.PostalCode)
	check("country", a.Country)
	return missing
}

type OrderItem struct {
	ID          string
	OrderID     string
	ProductID   string
	VariantID   *string
	ProductName string
	Quantity    int64
	// UnitPriceMinor is the price at order time, an immutable snapshot.
	UnitPriceMinor int64
	LineTotalMinor int64
}

type Order struct {
	ID            string
	Status        OrderStatus
	PaymentStatus PaymentStatus
	Method        PaymentMethod
	Currency      string
	TotalMinor    int64

	// COD split: a fixed token deposit goes through the gateway, the rest
	// is collected on delivery.
	TokenMinor        int64
	RemainingCODMinor int64
	TokenStatus       TokenStatus

	GatewayOrderID   *string
	GatewayPaymentID *string
	GatewaySignature *string
	TokenPaymentID   *string
	TokenSignature   *string

	CourierName *string
	TrackingURL *string

	Address Address
	Items   []OrderItem

	PaidAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentCompleted
}

func (o *Order) TokenPaid() bool {
	return o.Method == MethodCOD && o.TokenStatus == TokenPaid
}
