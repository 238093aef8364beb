package posts

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Date is a front-matter date as written, plus its parsed instant when the
// value could be parsed.
type Date struct {
	Raw   string
	Time  time.Time
	Valid bool

	// value is what the decoder produced, so Value can hand it back
	// unchanged.
	value any
}

// Missing reports whether the front matter had no date value at all.
func (d Date) Missing() bool { return d.Raw == "" && !d.Valid }

// Timestamp returns epoch milliseconds. ok is false for invalid dates.
func (d Date) Timestamp() (ms int64, ok bool) {
	if !d.Valid {
		return 0, false
	}
	return d.Time.UnixMilli(), true
}

// Value returns the date as it was decoded from the front matter, or nil
// when it was missing.
func (d Date) Value() any {
	if d.value != nil {
		return d.value
	}
	if d.Raw != "" {
		return d.Raw
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.Missing() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Raw)
}

// ParseDate converts a decoded front-matter value. Strings are parsed in UTC,
// so a bare "2024-01-01" is midnight UTC. Integers are epoch milliseconds.
// Decoders that already produce time.Time (TOML, some YAML) are accepted as is.
func ParseDate(v any) Date {
	switch x := v.(type) {
	case nil:
		return Date{}
	case time.Time:
		return Date{Raw: x.Format(time.RFC3339Nano), Time: x.UTC(), Valid: !x.IsZero(), value: x}
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return Date{}
		}
		t, err := dateparse.ParseIn(s, time.UTC)
		if err != nil {
			return Date{Raw: x, value: x}
		}
		return Date{Raw: x, Time: t.UTC(), Valid: true, value: x}
	case int:
		return fromMillis(int64(x), x)
	case int64:
		return fromMillis(x, x)
	case uint64:
		return fromMillis(int64(x), x)
	case float64:
		return fromMillis(int64(x), x)
	default:
		// kept as text so that Date stays comparable
		raw := fmt.Sprint(x)
		return Date{Raw: raw, value: raw}
	}
}

func fromMillis(ms int64, decoded any) Date {
	t := time.UnixMilli(ms).UTC()
	return Date{Raw: fmt.Sprint(ms), Time: t, Valid: true, value: decoded}
}
