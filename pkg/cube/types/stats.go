package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// StatKind tells which variant a StatValue holds.
type StatKind int

const (
	StatNull StatKind = iota
	StatNumber
	StatString
	StatBool
)

// StatValue is one value of the free-form stats mapping. The service may send
// null, a number, a string or a bool for any key.
type StatValue struct {
	Kind StatKind
	Num  float64
	Str  string
	Bool bool
}

func NullStat() StatValue { return StatValue{Kind: StatNull} }

func NumberStat(v float64) StatValue { return StatValue{Kind: StatNumber, Num: v} }

func StringStat(v string) StatValue { return StatValue{Kind: StatString, Str: v} }

func BoolStat(v bool) StatValue { return StatValue{Kind: StatBool, Bool: v} }

func (v StatValue) IsNull() bool { return v.Kind == StatNull }

func (v *StatValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*v = NullStat()
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringStat(s)
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*v = BoolStat(data[0] == 't')
	case data[0] == '{' || data[0] == '[':
		// nested values are shown verbatim
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*v = StringStat(buf.String())
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("stat value %s: %w", data, err)
		}
		*v = NumberStat(f)
	}
	return nil
}

func (v StatValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case StatNumber:
		return json.Marshal(v.Num)
	case StatString:
		return json.Marshal(v.Str)
	case StatBool:
		return json.Marshal(v.Bool)
	default:
		return []byte("null"), nil
	}
}

// Stat is a single key/value pair of the stats mapping.
type Stat struct {
	Key   string
	Value StatValue
}

// Stats keeps the stats mapping in the order the service sent it.
type Stats []Stat

// Get returns the value for key; absent keys report ok=false.
func (s Stats) Get(key string) (StatValue, bool) {
	for _, st := range s {
		if st.Key == key {
			return st.Value, true
		}
	}
	return StatValue{}, false
}

func (s *Stats) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("stats: expected object, got %v", tok)
	}
	out := Stats{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("stats: expected key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("stats %q: %w", key, err)
		}
		var val StatValue
		if err := val.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("stats %q: %w", key, err)
		}
		out = append(out, Stat{Key: key, Value: val})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*s = out
	return nil
}

func (s Stats) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, st := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(st.Key)
		if err != nil {
			return nil, err
		}
		v, err := st.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
