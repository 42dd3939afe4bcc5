package constants

import (
	"fmt"
	"time"
)

// Redis keys used by the reservation engine.
// Pattern: seatengine:{module}:{operation}:{identifier}

const (
	CACHE_PREFIX = "seatengine"
)

// Seat list cache. Entries are keyed by floor plan, generation and filter;
// every committed seat transition bumps the floor plan's generation.
const (
	CACHE_KEY_SEAT_LIST_GENERATION = CACHE_PREFIX + ":seats:generation:floor_plan:" // + floor-plan-id
	CACHE_KEY_SEAT_LIST            = CACHE_PREFIX + ":seats:list:floor_plan:"       // + floor-plan-id:gen:N:filter
)

const (
	TTL_SEAT_LIST = 30 * time.Second
)

// Coordination keys
const (
	LOCK_KEY_HOLD_SWEEP = CACHE_PREFIX + ":locks:hold_sweep"
	RATE_LIMIT_PREFIX   = CACHE_PREFIX + ":ratelimit"
)

func BuildSeatListGenerationKey(floorPlanID string) string {
	return CACHE_KEY_SEAT_LIST_GENERATION + floorPlanID
}

func BuildSeatListKey(floorPlanID string, generation int64, section, tier, status string) string {
	return fmt.Sprintf("%s%s:gen:%d:section:%s:tier:%s:status:%s",
		CACHE_KEY_SEAT_LIST, floorPlanID, generation, section, tier, status)
}

func BuildRateLimitKey(clientIP, limitType string) string {
	return RATE_LIMIT_PREFIX + ":" + clientIP + ":" + limitType
}
