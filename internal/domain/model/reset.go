package model

import "time"

// ConsumedHashSentinel replaces the temp password hash once a reset
// request has been used. A sentinel-marked request never validates
// again; requests are overwritten rather than deleted.
const ConsumedHashSentinel = "deactivated"

// ResetRequest records a forgot-password submission. The same email
// may appear on any number of requests; validation always consults
// the most recent one.
type ResetRequest struct {
	ID               int64     `json:"id"`
	Email            string    `json:"email"`
	TempPasswordHash string    `json:"temp_password_hash"`
	Created          time.Time `json:"created"`
}

// Consumed reports whether the request has already been used.
func (r *ResetRequest) Consumed() bool {
	return r.TempPasswordHash == ConsumedHashSentinel
}
