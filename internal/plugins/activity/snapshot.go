package activity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindObject
)

// Value is a snapshot field value: null, bool, number, string, a list of
// values, or a nested Snapshot. The zero Value is null.
type Value struct {
	kind ValueKind
	b    bool
	n    float64
	s    string
	list []Value
	obj  *Snapshot
}

func Null() Value { return Value{} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }
func Int(n int64) Value { return Value{kind: KindNumber, n: float64(n)} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func List(items ...Value) Value { return Value{kind: KindList, list: items} }

// Object wraps a nested snapshot. A nil snapshot is stored as null.
func Object(s *Snapshot) Value {
	if s == nil {
		return Null()
	}
	return Value{kind: KindObject, obj: s}
}

// Time stores t as an RFC 3339 string in UTC. The zero time is null.
func Time(t time.Time) Value {
	if t.IsZero() {
		return Null()
	}
	return String(t.UTC().Format(time.RFC3339Nano))
}

// ValueOf converts common Go values into a Value. Unsupported types are
// formatted with %v.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case *Snapshot:
		return Object(x)
	case bool:
		return Bool(x)
	case string:
		return String(x)
	case *string:
		if x == nil {
			return Null()
		}
		return String(*x)
	case int:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case uint:
		return Number(float64(x))
	case float32:
		return Number(float64(x))
	case float64:
		return Number(x)
	case time.Time:
		return Time(x)
	case *time.Time:
		if x == nil {
			return Null()
		}
		return Time(*x)
	case []string:
		items := make([]Value, len(x))
		for i, s := range x {
			items[i] = String(s)
		}
		return List(items...)
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = ValueOf(item)
		}
		return List(items...)
	case map[string]any:
		return Object(SnapshotFromMap(x))
	default:
		return String(fmt.Sprintf("%v", x))
	}
}

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v holds null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string variant.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// Float returns the number variant.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.n, true
}

// BoolValue returns the bool variant.
func (v Value) BoolValue() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Items returns the list variant.
func (v Value) Items() []Value { return v.list }

// Snapshot returns the nested object variant, or nil.
func (v Value) Snapshot() *Snapshot { return v.obj }

// Text renders v for display: strings verbatim, numbers without trailing
// zeros, lists and objects as compact JSON, null as "".
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList, KindObject:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
	return ""
}

// Equal reports deep equality. Object key order is not significant.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return v.obj.Equal(o.obj)
	}
	return false
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		// JSON has no NaN or infinity.
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			return []byte("null"), nil
		}
		return []byte(strconv.FormatFloat(v.n, 'f', -1, 64)), nil
	case KindString:
		return json.Marshal(v.s)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindObject:
		return v.obj.MarshalJSON()
	}
	return []byte("null"), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("decoding snapshot value: empty input")
	}

	switch trimmed[0] {
	case 'n':
		*v = Null()
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return fmt.Errorf("decoding snapshot bool: %w", err)
		}
		*v = Bool(b)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("decoding snapshot string: %w", err)
		}
		*v = String(s)
		return nil
	case '[':
		var items []Value
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return fmt.Errorf("decoding snapshot list: %w", err)
		}
		*v = List(items...)
		return nil
	case '{':
		s := NewSnapshot()
		if err := s.UnmarshalJSON(trimmed); err != nil {
			return err
		}
		*v = Object(s)
		return nil
	}

	var n float64
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("decoding snapshot number: %w", err)
	}
	*v = Number(n)
	return nil
}

// Snapshot is the state of an entity at one point in time: an ordered
// mapping of field names to values. It is deliberately schema-less so that
// tasks, categories, projects and anything added later share one shape.
// A nil *Snapshot is valid and empty.
type Snapshot struct {
	fields *orderedmap.OrderedMap[string, Value]
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{fields: orderedmap.New[string, Value]()}
}

// SnapshotFromMap builds a snapshot from a plain map. Keys are sorted since
// Go maps carry no order.
func SnapshotFromMap(m map[string]any) *Snapshot {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s := NewSnapshot()
	for _, k := range keys {
		s.Set(k, ValueOf(m[k]))
	}
	return s
}

// Set stores a field, keeping its original position if it already exists.
// Returns s for chaining.
func (s *Snapshot) Set(key string, v Value) *Snapshot {
	if s.fields == nil {
		s.fields = orderedmap.New[string, Value]()
	}
	s.fields.Set(key, v)
	return s
}

// Get returns the value stored under key.
func (s *Snapshot) Get(key string) (Value, bool) {
	if s == nil || s.fields == nil {
		return Null(), false
	}
	return s.fields.Get(key)
}

// Len returns the number of fields.
func (s *Snapshot) Len() int {
	if s == nil || s.fields == nil {
		return 0
	}
	return s.fields.Len()
}

// Keys returns field names in insertion order.
func (s *Snapshot) Keys() []string {
	if s == nil || s.fields == nil {
		return nil
	}
	keys := make([]string, 0, s.fields.Len())
	for pair := s.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Equal reports whether both snapshots hold the same fields and values.
func (s *Snapshot) Equal(o *Snapshot) bool {
	if s.Len() != o.Len() {
		return false
	}
	for _, k := range s.Keys() {
		a, _ := s.Get(k)
		b, ok := o.Get(k)
		if !ok || !a.Equal(b) {
			return false
		}
	}
	return true
}

// MarshalJSON implements json.Marshaler, preserving field order.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	if s.fields == nil {
		return []byte("{}"), nil
	}
	return s.fields.MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler, preserving field order.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	fields := orderedmap.New[string, Value]()
	if err := fields.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}
	s.fields = fields
	return nil
}

// FieldChange describes how one field differs between two snapshots.
type FieldChange struct {
	Field   string `json:"field"`
	Before  Value  `json:"before"`
	After   Value  `json:"after"`
	Added   bool   `json:"added,omitempty"`
	Removed bool   `json:"removed,omitempty"`
}

// Diff lists the fields whose values differ between before and after.
// Fields are reported in before's order followed by fields only in after.
func Diff(before, after *Snapshot) []FieldChange {
	var changes []FieldChange

	for _, k := range before.Keys() {
		b, _ := before.Get(k)
		a, ok := after.Get(k)
		if !ok {
			changes = append(changes, FieldChange{Field: k, Before: b, Removed: true})
			continue
		}
		if !a.Equal(b) {
			changes = append(changes, FieldChange{Field: k, Before: b, After: a})
		}
	}

	for _, k := range after.Keys() {
		if _, ok := before.Get(k); ok {
			continue
		}
		a, _ := after.Get(k)
		changes = append(changes, FieldChange{Field: k, After: a, Added: true})
	}

	return changes
}
