package orders

// Order events are keyed by order id so every event of one order lands on one partition in order.
const (
	TopicOrders   = "marketplace.orders"
	TopicMessages = "marketplace.messages"
)
