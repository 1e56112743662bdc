// Package timex holds time helpers shared by the config loaders.
package timex

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Duration wraps time.Duration so JSON configs can say either "3s" / "720h"
// or an integer number of nanoseconds.
type Duration struct {
	time.Duration
}

// MarshalJSON writes the duration in its string form ("1m30s").
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a duration string or an integer nanosecond count.
func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		v, err := time.ParseDuration(str)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", str, err)
		}
		d.Duration = v
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid duration %s: %w", s, err)
	}
	d.Duration = time.Duration(n)
	return nil
}

// Days converts a whole number of days into a duration.
func Days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

// UnixMilli converts epoch milliseconds back into a UTC time.
func UnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
