package domain

// MetadataField is a single variant-specific attribute of a content item.
// Value is a scalar: string, float64, int64 or bool.
type MetadataField struct {
	Key   string
	Value any
}

// Metadata is an insertion-ordered string→scalar map. Consumers pattern-match
// on the item's SourceType and read the fields they know about; iteration
// order is deterministic for identical inputs.
type Metadata []MetadataField

// Set appends or replaces the field with the given key, preserving the
// position of an existing key.
func (m Metadata) Set(key string, value any) Metadata {
	for i := range m {
		if m[i].Key == key {
			m[i].Value = value
			return m
		}
	}
	return append(m, MetadataField{Key: key, Value: value})
}

// Get returns the value for key and whether it was present.
func (m Metadata) Get(key string) (any, bool) {
	for i := range m {
		if m[i].Key == key {
			return m[i].Value, true
		}
	}
	return nil, false
}

// Float returns the field as a float64, converting integer values.
// Returns 0, false for missing or non-numeric fields.
func (m Metadata) Float(key string) (float64, bool) {
	v, ok := m.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

// String returns the field as a string. Returns "", false for missing or
// non-string fields.
func (m Metadata) String(key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Clone returns a copy sharing no backing storage with m.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	copy(out, m)
	return out
}
