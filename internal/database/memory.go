package database

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryCollection keeps documents as normalised bson.M so filters see the
// same value types the driver would store.
type memoryCollection[T any] struct {
	name   string
	unique []string

	mu   sync.RWMutex
	docs []bson.M
}

func newMemoryCollection[T any](name string, unique ...string) *memoryCollection[T] {
	return &memoryCollection[T]{name: name, unique: unique}
}

func (c *memoryCollection[T]) Name() string { return c.name }

func (c *memoryCollection[T]) Insert(_ context.Context, doc *T) error {
	m, err := normalize(doc)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", c.name, err)
	}
	if _, ok := m["_id"]; !ok {
		m["_id"] = primitive.NewObjectID()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	keys := append([]string{"_id"}, c.unique...)
	for _, existing := range c.docs {
		for _, key := range keys {
			if v, ok := m[key]; ok && equalValues(existing[key], v) {
				return fmt.Errorf("%s.%s: %w", c.name, key, ErrDuplicateKey)
			}
		}
	}
	c.docs = append(c.docs, m)
	return nil
}

func (c *memoryCollection[T]) FindOne(ctx context.Context, filter bson.M) (*T, error) {
	found, err := c.Find(ctx, filter, FindOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return &found[0], nil
}

func (c *memoryCollection[T]) Find(_ context.Context, filter bson.M, opts ...FindOptions) ([]T, error) {
	f, err := normalize(orEmpty(filter))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.name, err)
	}

	c.mu.RLock()
	var matched []bson.M
	for _, doc := range c.docs {
		if matches(doc, f) {
			matched = append(matched, doc)
		}
	}
	c.mu.RUnlock()

	var limit int64
	for _, o := range opts {
		if o.SortField != "" {
			field, desc := o.SortField, o.SortDesc
			sort.SliceStable(matched, func(i, j int) bool {
				cmp := compareValues(matched[i][field], matched[j][field])
				if desc {
					return cmp > 0
				}
				return cmp < 0
			})
		}
		if o.Limit > 0 {
			limit = o.Limit
		}
	}
	if limit > 0 && int64(len(matched)) > limit {
		matched = matched[:limit]
	}

	out := make([]T, 0, len(matched))
	for _, doc := range matched {
		raw, err := bson.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", c.name, err)
		}
		var t T
		if err := bson.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("decode %s: %w", c.name, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (c *memoryCollection[T]) Count(_ context.Context, filter bson.M) (int64, error) {
	f, err := normalize(orEmpty(filter))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c.name, err)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var n int64
	for _, doc := range c.docs {
		if matches(doc, f) {
			n++
		}
	}
	return n, nil
}

func (c *memoryCollection[T]) UpdateOne(_ context.Context, filter bson.M, set bson.M) (int64, error) {
	return c.update(filter, set, 1)
}

func (c *memoryCollection[T]) UpdateMany(_ context.Context, filter bson.M, set bson.M) (int64, error) {
	return c.update(filter, set, -1)
}

func (c *memoryCollection[T]) update(filter, set bson.M, max int) (int64, error) {
	f, err := normalize(orEmpty(filter))
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", c.name, err)
	}
	s, err := normalize(set)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", c.name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, doc := range c.docs {
		if max >= 0 && n >= int64(max) {
			break
		}
		if !matches(doc, f) {
			continue
		}
		for k, v := range s {
			doc[k] = v
		}
		n++
	}
	return n, nil
}

func (c *memoryCollection[T]) Push(_ context.Context, filter bson.M, key string, value interface{}, set bson.M) (int64, error) {
	f, err := normalize(orEmpty(filter))
	if err != nil {
		return 0, fmt.Errorf("push to %s.%s: %w", c.name, key, err)
	}
	s, err := normalize(set)
	if err != nil {
		return 0, fmt.Errorf("push to %s.%s: %w", c.name, key, err)
	}
	wrapped, err := normalize(bson.M{"v": value})
	if err != nil {
		return 0, fmt.Errorf("push to %s.%s: %w", c.name, key, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, doc := range c.docs {
		if !matches(doc, f) {
			continue
		}
		var list bson.A
		switch existing := doc[key].(type) {
		case nil:
		case bson.A:
			list = existing
		default:
			return 0, fmt.Errorf("push to %s.%s: field is not an array", c.name, key)
		}
		doc[key] = append(append(bson.A{}, list...), wrapped["v"])
		for k, v := range s {
			doc[k] = v
		}
		return 1, nil
	}
	return 0, nil
}

func (c *memoryCollection[T]) DeleteMany(_ context.Context, filter bson.M) (int64, error) {
	f, err := normalize(orEmpty(filter))
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", c.name, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.docs[:0]
	var n int64
	for _, doc := range c.docs {
		if matches(doc, f) {
			n++
			continue
		}
		kept = append(kept, doc)
	}
	c.docs = kept
	return n, nil
}

// normalize round-trips v through BSON so stored and queried values share types.
func normalize(v interface{}) (bson.M, error) {
	if v == nil {
		return bson.M{}, nil
	}
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = bson.M{}
	}
	return m, nil
}

func matches(doc, filter bson.M) bool {
	for key, want := range filter {
		got, present := doc[key]
		if ops, ok := operators(want); ok {
			for op, arg := range ops {
				switch op {
				case "$in":
					if !present || !inList(arg, got) {
						return false
					}
				case "$nin":
					if present && inList(arg, got) {
						return false
					}
				case "$ne":
					if present && equalValues(got, arg) {
						return false
					}
				case "$exists":
					if b, _ := arg.(bool); b != present {
						return false
					}
				case "$gt", "$gte", "$lt", "$lte":
					if !present || !inRange(op, got, arg) {
						return false
					}
				default:
					return false
				}
			}
			continue
		}
		if !present {
			if want == nil {
				continue
			}
			return false
		}
		if !equalValues(got, want) {
			return false
		}
	}
	return true
}

func operators(v interface{}) (map[string]interface{}, bool) {
	var m map[string]interface{}
	switch t := v.(type) {
	case bson.M:
		m = t
	case map[string]interface{}:
		m = t
	case bson.D:
		m = t.Map()
	default:
		return nil, false
	}
	if len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

// inRange applies a comparison operator. Values of different kinds never match, as in MongoDB.
func inRange(op string, got, arg interface{}) bool {
	if !sameKind(got, arg) {
		return false
	}
	cmp := compareValues(got, arg)
	switch op {
	case "$gt":
		return cmp > 0
	case "$gte":
		return cmp >= 0
	case "$lt":
		return cmp < 0
	default:
		return cmp <= 0
	}
}

func sameKind(a, b interface{}) bool {
	if _, ok := number(a); ok {
		_, ok = number(b)
		return ok
	}
	return a != nil && b != nil && reflect.TypeOf(a) == reflect.TypeOf(b)
}

func inList(list, v interface{}) bool {
	items, ok := list.(bson.A)
	if !ok {
		if raw, isSlice := list.([]interface{}); isSlice {
			items = raw
		} else {
			return false
		}
	}
	for _, item := range items {
		if equalValues(item, v) {
			return true
		}
	}
	return false
}

func equalValues(a, b interface{}) bool {
	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// compareValues orders nil first, then numbers, strings, times and booleans by value.
func compareValues(a, b interface{}) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			return cmpOrdered(fa, fb)
		}
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case primitive.DateTime:
		if y, ok := b.(primitive.DateTime); ok {
			return cmpOrdered(int64(x), int64(y))
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	case primitive.ObjectID:
		if y, ok := b.(primitive.ObjectID); ok {
			return strings.Compare(x.Hex(), y.Hex())
		}
	}
	return 0
}

func cmpOrdered[N int64 | float64](a, b N) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
