package core

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ID identifies a backend resource. The backend sends either integers or UUID strings.
type ID string

// NormalizeID trims `s` and turns UUIDs into the dash-less form used in backend routes.
func NormalizeID(s string) ID {
	s = strings.TrimSpace(s)
	if u, err := uuid.Parse(s); err == nil {
		return ID(strings.ReplaceAll(u.String(), "-", ""))
	}
	return ID(s)
}

func (id ID) String() string { return string(id) }

func (id ID) IsZero() bool { return id == "" }

// Equal compares IDs regardless of UUID formatting.
func (id ID) Equal(other ID) bool {
	return NormalizeID(string(id)) == NormalizeID(string(other))
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	// only canonical integers go out as JSON numbers
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.Wrap(err, "decoding ID")
		}
		*id = NormalizeID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrap(err, "decoding ID")
	}
	*id = ID(n.String())
	return nil
}

// DateLayout is the layout of calendar dates exchanged with the backend and HTML date inputs.
const DateLayout = "2006-01-02"

// Date is a calendar date. It accepts both "2006-01-02" and RFC 3339 timestamps.
type Date struct {
	time.Time
}

func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, errors.Errorf("invalid date %q", s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "decoding date")
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// UnmarshalParam lets echo bind form values into a Date.
func (d *Date) UnmarshalParam(param string) error {
	parsed, err := ParseDate(param)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Percent is a completion percentage the backend may send as a number or as a decimal string.
type Percent float64

func (p *Percent) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return errors.Wrap(err, "decoding percentage")
	}
	*p = Percent(f)
	return nil
}

// Rounded returns the percentage rounded to the nearest integer.
func (p Percent) Rounded() int {
	return int(float64(p) + .5)
}
