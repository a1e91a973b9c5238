package gamma

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// FlexStrings is a []string that unmarshals from either a JSON array or a
// JSON string containing an encoded array. The Gamma API uses both shapes
// for outcomes, outcomePrices, and clobTokenIds depending on the endpoint.
// Unparseable input decodes to nil rather than failing the snapshot.
type FlexStrings []string

func (f *FlexStrings) UnmarshalJSON(data []byte) error {
	*f = nil

	var direct []string
	if err := json.Unmarshal(data, &direct); err == nil {
		*f = direct
		return nil
	}

	var encoded string
	if err := json.Unmarshal(data, &encoded); err == nil {
		var inner []string
		if err := json.Unmarshal([]byte(encoded), &inner); err == nil {
			*f = inner
		}
		return nil
	}

	return nil
}

// FlexFloat64 is an optional float that unmarshals from a JSON number, a
// string-encoded number, or null. String decoding goes through decimal so
// wire values like "123456.789012" survive intact. Absent, null, and
// unparseable values all leave Valid false — a parse failure never aborts
// the snapshot, and absent stays distinct from zero.
type FlexFloat64 struct {
	Value float64
	Valid bool
}

func (f *FlexFloat64) UnmarshalJSON(data []byte) error {
	f.Value, f.Valid = 0, false

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		f.Value, f.Valid = num, true
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if dec, err := decimal.NewFromString(str); err == nil {
			f.Value, f.Valid = dec.InexactFloat64(), true
		}
	}

	return nil
}

// Ptr returns the value as *float64, nil when invalid.
func (f FlexFloat64) Ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// ParsePrice converts one string-encoded outcome price to *float64 using
// decimal parsing. Returns nil on failure, never an error.
func ParsePrice(s string) *float64 {
	dec, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	v := dec.InexactFloat64()
	return &v
}
