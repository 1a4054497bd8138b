package redisx

import "time"

const (
	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Conversation creation reservation: conv:reserve:{participant_a}:{participant_b}
	KeyConversationReserve = "conv:reserve:%s:%s"

	// Presence: presence:user:{user_id} -> set of connection ids, presence:conn:{conn_id} -> user_id
	KeyPresenceUser = "presence:user:%s"
	KeyPresenceConn = "presence:conn:%s"

	// Product cache: product:{id} -> json | "notfound", products:all -> json
	KeyProduct     = "product:%s"
	KeyProductsAll = "products:all"

	// Real-time fan-out channel per user: rt:user:{user_id}
	ChannelUser        = "rt:user:%s"
	ChannelUserPattern = "rt:user:*"
)

var (
	TTLDedup           = 48 * time.Hour
	TTLReservation     = 5 * time.Second
	TTLPresence        = 2 * time.Minute
	TTLProductCache    = 5 * time.Minute
	TTLProductNotFound = 1 * time.Minute
)
