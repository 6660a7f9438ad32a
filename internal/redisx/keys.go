package redisx

import "time"

const (
	// idem:checkout:{owner}:{Idempotency-Key} -> order id
	KeyIdemCheckout = "idem:checkout:%s:%s"
)

var TTLIdempotency = 24 * time.Hour
