package model

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
)

var orderTransitions = map[OrderStatus]OrderStatus{
	OrderStatusPending: OrderStatusShipped,
	OrderStatusShipped: OrderStatusDelivered,
}

// CanTransitionTo reports whether to is the next status after from.
// Fulfillment is linear: pending → shipped → delivered.
func CanTransitionTo(from, to OrderStatus) bool {
	next, ok := orderTransitions[from]
	return ok && next == to
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusShipped, OrderStatusDelivered:
		return OrderStatus(s), true
	}
	return "", false
}
