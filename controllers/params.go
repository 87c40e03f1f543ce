package controllers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/geoattend/services"
)

var queryTimeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseID(raw string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// parseTimeQuery reads an optional timestamp query parameter. Values without an offset are UTC;
// a bare date means midnight.
func parseTimeQuery(ctx *gin.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(ctx.Query(name))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range queryTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: invalid %s %q", services.ErrValidation, name, raw)
}

func parseRange(ctx *gin.Context) (start, end *time.Time, err error) {
	if start, err = parseTimeQuery(ctx, "start_date"); err != nil {
		return nil, nil, err
	}
	if end, err = parseTimeQuery(ctx, "end_date"); err != nil {
		return nil, nil, err
	}
	return start, end, nil
}
