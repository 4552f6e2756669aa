package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrymomot/sessionkit/pkg/codec"
)

// Store holds session values addressed by dotted key paths such as "user.age".
// It is not safe for concurrent use; a Store belongs to a single request.
type Store struct {
	values   map[string]any
	modified bool
}

// New returns an empty, unmodified store.
func New() *Store {
	return &Store{values: make(map[string]any)}
}

// FromMap builds a store from plain values. The store starts unmodified.
func FromMap(values map[string]any) (*Store, error) {
	s := New()
	for k, v := range values {
		n, err := codec.Normalize(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		if n != nil {
			s.values[k] = n
		}
	}
	return s, nil
}

// Decode builds a store from a persisted payload produced by Encode.
// An empty payload yields an empty store.
func Decode(payload string) (*Store, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return New(), nil
	}

	var raw map[string]codec.Encoded
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", codec.ErrMalformedEncodedValue, err)
	}

	s := New()
	for k, enc := range raw {
		v, err := codec.Decode(enc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		s.values[k] = v
	}
	return s, nil
}

// Parse is Decode that never fails: corrupt or foreign payloads produce an empty store.
func Parse(payload string) *Store {
	s, err := Decode(payload)
	if err != nil {
		return New()
	}
	return s
}

// Get returns the value at path, or def when nothing is stored there.
// Containers are returned as copies; mutate through Set.
func (s *Store) Get(path string, def any) any {
	v, ok := lookup(s.values, path)
	if !ok || v == nil {
		return def
	}
	return deepCopy(v)
}

// Set stores value at path, creating intermediate objects as needed.
// Scalar intermediates are replaced by objects; arrays are never written
// through and yield ErrNotAnObject with the store left unchanged.
// A nil value removes the path.
func (s *Store) Set(path string, value any) error {
	parts, err := splitPath(path)
	if err != nil {
		return err
	}

	n, err := codec.Normalize(value)
	if err != nil {
		return err
	}
	if n != nil {
		if err := checkTraversable(s.values, parts); err != nil {
			return err
		}
	}

	s.modified = true
	if n == nil {
		unset(s.values, parts)
		return nil
	}

	m := s.values
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = n
	return nil
}

func checkTraversable(m map[string]any, parts []string) error {
	for i, p := range parts[:len(parts)-1] {
		switch next := m[p].(type) {
		case map[string]any:
			m = next
		case []any:
			return fmt.Errorf("%w: %q", ErrNotAnObject, strings.Join(parts[:i+1], "."))
		default:
			return nil
		}
	}
	return nil
}

// Unset removes the value at path.
func (s *Store) Unset(path string) {
	s.modified = true
	parts, err := splitPath(path)
	if err != nil {
		return
	}
	unset(s.values, parts)
}

// Has reports whether a non-nil value exists at path. Arrays count only when non-empty.
func (s *Store) Has(path string) bool {
	v, ok := lookup(s.values, path)
	if !ok || v == nil {
		return false
	}
	if arr, ok := v.([]any); ok {
		return len(arr) > 0
	}
	return true
}

// HasKey is Has without the array length check.
func (s *Store) HasKey(path string) bool {
	v, ok := lookup(s.values, path)
	return ok && v != nil
}

// Pull returns the value at path and removes it.
func (s *Store) Pull(path string, def any) any {
	v := s.Get(path, def)
	s.Unset(path)
	return v
}

// Increment adds steps to the number at path. A missing value counts as zero.
func (s *Store) Increment(path string, steps int) error {
	return s.add(path, steps)
}

// Decrement subtracts steps from the number at path. A missing value counts as zero.
func (s *Store) Decrement(path string, steps int) error {
	return s.add(path, -steps)
}

func (s *Store) add(path string, steps int) error {
	switch n := s.Get(path, int64(0)).(type) {
	case int64:
		return s.Set(path, n+int64(steps))
	case float64:
		return s.Set(path, n+float64(steps))
	default:
		return fmt.Errorf("%w: %q holds %T", ErrNotANumber, path, n)
	}
}

// Merge deep-merges values into the store. Nested objects are merged key by key,
// everything else is replaced.
func (s *Store) Merge(values map[string]any) error {
	n, err := codec.Normalize(values)
	if err != nil {
		return err
	}
	s.modified = true
	if m, ok := n.(map[string]any); ok {
		deepMerge(s.values, m)
	}
	return nil
}

// Clear removes every value.
func (s *Store) Clear() {
	s.values = make(map[string]any)
	s.modified = true
}

// All returns a copy of every stored value.
func (s *Store) All() map[string]any {
	return deepCopy(s.values).(map[string]any)
}

// IsEmpty reports whether the store would persist as an empty payload.
func (s *Store) IsEmpty() bool {
	return len(prune(s.values)) == 0
}

// HasBeenModified reports whether any mutating call ran since construction.
func (s *Store) HasBeenModified() bool {
	return s.modified
}

// ToJSON returns the codec-encoded form of the pruned values.
func (s *Store) ToJSON() (map[string]codec.Encoded, error) {
	pruned := prune(s.values)
	out := make(map[string]codec.Encoded, len(pruned))
	for k, v := range pruned {
		enc, err := codec.Encode(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = enc
	}
	return out, nil
}

// Encode returns the payload handed to storage drivers.
func (s *Store) Encode() (string, error) {
	data, err := s.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// MarshalJSON implements json.Marshaler.
func (s *Store) MarshalJSON() ([]byte, error) {
	enc, err := s.ToJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(enc)
}

// String implements fmt.Stringer.
func (s *Store) String() string {
	payload, err := s.Encode()
	if err != nil {
		return "{}"
	}
	return payload
}

func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	parts := strings.Split(path, ".")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: %q", ErrEmptyPath, path)
		}
	}
	return parts, nil
}

// lookup walks objects by key and arrays by numeric index.
func lookup(values map[string]any, path string) (any, bool) {
	parts, err := splitPath(path)
	if err != nil {
		return nil, false
	}

	var cur any = values
	for _, p := range parts {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[p]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(p)
			if err != nil || i < 0 || i >= len(c) {
				return nil, false
			}
			cur = c[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

func unset(values map[string]any, parts []string) {
	m := values
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			return
		}
		m = next
	}
	delete(m, parts[len(parts)-1])
}

func deepMerge(dst, src map[string]any) {
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := dst[k].(map[string]any)
		if srcIsMap && dstIsMap {
			deepMerge(dstMap, srcMap)
			continue
		}
		dst[k] = v
	}
}

// prune drops nil values and empty containers, recursively through objects.
func prune(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		switch x := v.(type) {
		case nil:
		case map[string]any:
			if p := prune(x); len(p) > 0 {
				out[k] = p
			}
		case []any:
			if len(x) > 0 {
				out[k] = x
			}
		default:
			out[k] = v
		}
	}
	return out
}

func deepCopy(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, child := range x {
			out[k] = deepCopy(child)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, child := range x {
			out[i] = deepCopy(child)
		}
		return out
	default:
		return v
	}
}
