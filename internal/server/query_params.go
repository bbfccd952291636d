package server

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

func parsePositiveInt(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

const dateOnlyLayout = "2006-01-02"

// parseOptionalTime reads a query parameter as RFC3339 or as a bare date.
// Bare dates snap to the start of the day unless endOfDay is set, in which
// case they snap to the last instant of the day so inclusive windows cover
// the whole date.
func parseOptionalTime(c *gin.Context, key string, endOfDay bool) (time.Time, bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return time.Time{}, false, nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true, nil
	}

	t, err := time.Parse(dateOnlyLayout, raw)
	if err != nil {
		return time.Time{}, false, ValidationError{Message: fmt.Sprintf("invalid %s: expected RFC3339 or %s", key, dateOnlyLayout)}
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t.UTC(), true, nil
}

// requireTime is parseOptionalTime for parameters the endpoint cannot work
// without.
func requireTime(c *gin.Context, key string, endOfDay bool) (time.Time, error) {
	t, ok, err := parseOptionalTime(c, key, endOfDay)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Time{}, ValidationError{Message: fmt.Sprintf("missing %s", key)}
	}
	return t, nil
}
