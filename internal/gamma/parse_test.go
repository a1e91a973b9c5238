package gamma

import (
	"encoding/json"
	"testing"
)

func TestFlexStringsFromArray(t *testing.T) {
	t.Parallel()
	var f FlexStrings
	if err := json.Unmarshal([]byte(`["Yes","No"]`), &f); err != nil {
		t.Fatal(err)
	}
	if len(f) != 2 || f[0] != "Yes" || f[1] != "No" {
		t.Errorf("f = %v", f)
	}
}

func TestFlexStringsFromEncodedString(t *testing.T) {
	t.Parallel()
	var f FlexStrings
	if err := json.Unmarshal([]byte(`"[\"Yes\", \"No\"]"`), &f); err != nil {
		t.Fatal(err)
	}
	if len(f) != 2 || f[0] != "Yes" || f[1] != "No" {
		t.Errorf("f = %v", f)
	}
}

func TestFlexStringsGarbageYieldsNil(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{`"not an array"`, `42`, `null`, `{"a":1}`} {
		var f FlexStrings = FlexStrings{"stale"}
		if err := json.Unmarshal([]byte(raw), &f); err != nil {
			t.Errorf("unmarshal %s: unexpected error %v", raw, err)
		}
		if f != nil {
			t.Errorf("unmarshal %s: f = %v, want nil", raw, f)
		}
	}
}

func TestFlexFloat64FromNumber(t *testing.T) {
	t.Parallel()
	var f FlexFloat64
	if err := json.Unmarshal([]byte(`123.45`), &f); err != nil {
		t.Fatal(err)
	}
	if !f.Valid || f.Value != 123.45 {
		t.Errorf("f = %+v", f)
	}
}

func TestFlexFloat64FromString(t *testing.T) {
	t.Parallel()
	var f FlexFloat64
	if err := json.Unmarshal([]byte(`"123456.789012"`), &f); err != nil {
		t.Fatal(err)
	}
	if !f.Valid || f.Value != 123456.789012 {
		t.Errorf("f = %+v", f)
	}
}

func TestFlexFloat64InvalidStaysAbsent(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{`null`, `"garbage"`, `[1,2]`} {
		f := FlexFloat64{Value: 9, Valid: true}
		if err := json.Unmarshal([]byte(raw), &f); err != nil {
			t.Errorf("unmarshal %s: unexpected error %v", raw, err)
		}
		if f.Valid {
			t.Errorf("unmarshal %s: Valid = true, want false", raw)
		}
	}
}

func TestFlexFloat64AbsentDistinctFromZero(t *testing.T) {
	t.Parallel()
	var zero, absent FlexFloat64
	if err := json.Unmarshal([]byte(`0`), &zero); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`null`), &absent); err != nil {
		t.Fatal(err)
	}
	if zero.Ptr() == nil {
		t.Error("zero should produce a non-nil pointer")
	}
	if absent.Ptr() != nil {
		t.Error("absent should produce nil")
	}
}

func TestParsePrice(t *testing.T) {
	t.Parallel()
	if p := ParsePrice("0.4825"); p == nil || *p != 0.4825 {
		t.Errorf("ParsePrice = %v", p)
	}
	if p := ParsePrice("not a price"); p != nil {
		t.Errorf("ParsePrice garbage = %v, want nil", p)
	}
}

func TestMarketDecodeBothShapes(t *testing.T) {
	t.Parallel()
	// outcomes as encoded string, prices as array, volume as string
	raw := `{
		"id": "123",
		"conditionId": "0xabc",
		"question": "Will it happen?",
		"outcomes": "[\"Yes\", \"No\"]",
		"outcomePrices": ["0.65", "0.35"],
		"clobTokenIds": "[\"tok-yes\", \"tok-no\"]",
		"closed": false,
		"volume24hr": "50000.5",
		"liquidityNum": 10000
	}`
	var m Market
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatal(err)
	}
	if m.Key() != "0xabc" {
		t.Errorf("Key = %q", m.Key())
	}
	if len(m.Outcomes) != 2 || m.Outcomes[0] != "Yes" {
		t.Errorf("Outcomes = %v", m.Outcomes)
	}
	if len(m.OutcomePrices) != 2 || m.OutcomePrices[1] != "0.35" {
		t.Errorf("OutcomePrices = %v", m.OutcomePrices)
	}
	if len(m.ClobTokenIds) != 2 || m.ClobTokenIds[0] != "tok-yes" {
		t.Errorf("ClobTokenIds = %v", m.ClobTokenIds)
	}
	if !m.Volume24hr.Valid || m.Volume24hr.Value != 50000.5 {
		t.Errorf("Volume24hr = %+v", m.Volume24hr)
	}
	if !m.LiquidityNum.Valid || m.LiquidityNum.Value != 10000 {
		t.Errorf("LiquidityNum = %+v", m.LiquidityNum)
	}
}

func TestMarketDecodeGarbageNumericsSurvive(t *testing.T) {
	t.Parallel()
	raw := `{"question": "Q", "volume24hr": "garbage", "outcomePrices": 42}`
	var m Market
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("decode should survive garbage fields: %v", err)
	}
	if m.Volume24hr.Valid {
		t.Error("garbage volume should be absent")
	}
	if m.OutcomePrices != nil {
		t.Errorf("OutcomePrices = %v, want nil", m.OutcomePrices)
	}
}
