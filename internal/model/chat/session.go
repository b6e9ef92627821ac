package chat

import "time"

// Session identifies one widget instance hosted by the gateway.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
