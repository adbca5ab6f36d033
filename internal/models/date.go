package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Date is a calendar date kept in its canonical YYYY-MM-DD form. Postgres
// hands `date` columns back as time.Time, which is folded to the same form.
type Date string

func (d Date) String() string {
	return string(d)
}

// Time parses the date; ok is false when the value is not canonical.
func (d Date) Time() (time.Time, bool) {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = ""
	case time.Time:
		*d = Date(v.Format(DateLayout))
	case string:
		*d = Date(trimDate(v))
	case []byte:
		*d = Date(trimDate(string(v)))
	default:
		return fmt.Errorf("models.Date: cannot scan %T", value)
	}
	return nil
}

func (d Date) Value() (driver.Value, error) {
	if d == "" {
		return nil, nil
	}
	return string(d), nil
}

func trimDate(s string) string {
	if len(s) > len(DateLayout) {
		return s[:len(DateLayout)]
	}
	return s
}
