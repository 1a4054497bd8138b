package orders

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusPicked     Status = "picked"
	StatusDelivered  Status = "delivered"
	StatusRejected   Status = "rejected"
)

// Response is the seller's one-time decision on an order.
type Response string

const (
	ResponsePending  Response = "pending"
	ResponseAccepted Response = "accepted"
	ResponseRejected Response = "rejected"
)

var open = map[Status]bool{StatusPending: true, StatusProcessing: true, StatusPicked: true, StatusDelivered: true}

// delivered and rejected are terminal; delivered -> delivered is allowed so repeated calls stay idempotent.
var validNext = map[Status]map[Status]bool{
	StatusPending:    open,
	StatusProcessing: open,
	StatusPicked:     open,
	StatusDelivered:  {StatusDelivered: true},
	StatusRejected:   {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// ParseAdminStatus accepts the statuses an admin may set directly.
func ParseAdminStatus(s string) (Status, bool) {
	st := Status(s)
	return st, open[st]
}

func ParseResponse(s string) (Response, bool) {
	r := Response(s)
	return r, r == ResponseAccepted || r == ResponseRejected
}
