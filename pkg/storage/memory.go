package storage

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore implements Store in memory. It supports the query shapes
// the service actually issues: field equality, $in, dotted array paths,
// and the $pull / $set update operators. Used by tests and local
// development.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]bson.Raw
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]bson.Raw)}
}

// WithSession runs fn directly; the in-memory store is always
// consistent with itself.
func (s *MemoryStore) WithSession(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ListCollections names every collection that has ever held a document.
func (s *MemoryStore) ListCollections(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	return names, nil
}

// Find decodes every matching document into out.
func (s *MemoryStore) Find(ctx context.Context, collection string, filter Filter, out interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	outVal := reflect.ValueOf(out)
	if outVal.Kind() != reflect.Ptr || outVal.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("find output must be a pointer to a slice, got %T", out)
	}
	slice := outVal.Elem()
	slice.SetLen(0)
	elemType := slice.Type().Elem()

	for _, raw := range s.collections[collection] {
		doc, err := toDocument(raw)
		if err != nil {
			return err
		}
		if !matchDocument(doc, filter) {
			continue
		}
		elem := reflect.New(elemType)
		if err := bson.Unmarshal(raw, elem.Interface()); err != nil {
			return fmt.Errorf("decoding %s document failed: %w", collection, err)
		}
		slice = reflect.Append(slice, elem.Elem())
	}
	outVal.Elem().Set(slice)
	return nil
}

// FindOne decodes the first matching document into out.
func (s *MemoryStore) FindOne(ctx context.Context, collection string, filter Filter, out interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, raw := range s.collections[collection] {
		doc, err := toDocument(raw)
		if err != nil {
			return err
		}
		if matchDocument(doc, filter) {
			return bson.Unmarshal(raw, out)
		}
	}
	return ErrNotFound
}

// InsertOne stores one document.
func (s *MemoryStore) InsertOne(ctx context.Context, collection string, doc interface{}) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding %s document failed: %w", collection, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = append(s.collections[collection], raw)
	return nil
}

// DeleteMany removes every matching document.
func (s *MemoryStore) DeleteMany(ctx context.Context, collection string, filter Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []bson.Raw
	var deleted int64
	for _, raw := range s.collections[collection] {
		doc, err := toDocument(raw)
		if err != nil {
			return deleted, err
		}
		if matchDocument(doc, filter) {
			deleted++
			continue
		}
		kept = append(kept, raw)
	}
	s.collections[collection] = kept
	return deleted, nil
}

// UpdateMany applies $pull and $set updates to every matching document.
func (s *MemoryStore) UpdateMany(ctx context.Context, collection string, filter Filter, update Update) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var modified int64
	docs := s.collections[collection]
	for i, raw := range docs {
		doc, err := toDocument(raw)
		if err != nil {
			return modified, err
		}
		if !matchDocument(doc, filter) {
			continue
		}
		changed, err := applyUpdate(doc, update)
		if err != nil {
			return modified, err
		}
		if !changed {
			continue
		}
		updated, err := bson.Marshal(doc)
		if err != nil {
			return modified, fmt.Errorf("encoding %s document failed: %w", collection, err)
		}
		docs[i] = updated
		modified++
	}
	return modified, nil
}

// HealthCheck always succeeds.
func (s *MemoryStore) HealthCheck(ctx context.Context) error {
	return nil
}

// Count reports how many documents in collection match filter. Test
// helper, not part of the Store contract.
func (s *MemoryStore) Count(collection string, filter Filter) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, raw := range s.collections[collection] {
		doc, err := toDocument(raw)
		if err != nil {
			continue
		}
		if matchDocument(doc, filter) {
			n++
		}
	}
	return n
}

func toDocument(raw bson.Raw) (bson.M, error) {
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding stored document failed: %w", err)
	}
	return doc, nil
}

// matchDocument evaluates filter against doc with MongoDB semantics for
// the operators the service uses.
func matchDocument(doc bson.M, filter Filter) bool {
	for path, cond := range filter {
		values := resolvePath(doc, path)
		if !matchCondition(values, cond) {
			return false
		}
	}
	return true
}

// resolvePath walks a dotted path, fanning out through arrays the way
// MongoDB does ("members.cid" inspects every member).
func resolvePath(v interface{}, path string) []interface{} {
	current := []interface{}{v}
	start := 0
	for start <= len(path) {
		end := start
		for end < len(path) && path[end] != '.' {
			end++
		}
		seg := path[start:end]
		var next []interface{}
		for _, c := range current {
			next = append(next, step(c, seg)...)
		}
		current = next
		if end == len(path) {
			break
		}
		start = end + 1
	}

	// a terminal array matches if any element matches
	var out []interface{}
	for _, c := range current {
		out = append(out, c)
		if arr, ok := c.(primitive.A); ok {
			out = append(out, arr...)
		}
	}
	return out
}

func step(v interface{}, seg string) []interface{} {
	switch t := v.(type) {
	case bson.M:
		if val, ok := t[seg]; ok {
			return []interface{}{val}
		}
	case primitive.A:
		var out []interface{}
		for _, elem := range t {
			out = append(out, step(elem, seg)...)
		}
		return out
	}
	return nil
}

func matchCondition(values []interface{}, cond interface{}) bool {
	if ops, ok := cond.(bson.M); ok {
		if in, ok := ops["$in"]; ok {
			return matchIn(values, in)
		}
	}
	for _, v := range values {
		if equalBSON(v, cond) {
			return true
		}
	}
	return false
}

func matchIn(values []interface{}, set interface{}) bool {
	rv := reflect.ValueOf(set)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		want := rv.Index(i).Interface()
		for _, v := range values {
			if equalBSON(v, want) {
				return true
			}
		}
	}
	return false
}

// equalBSON compares a stored value against a filter value. Values
// decoded from BSON and values supplied by callers have identical
// representations for most types the service stores (ObjectID, string,
// bool, time); UUIDs decode to primitive.Binary while callers filter
// with uuid.UUID, so byte arrays and binaries compare by content.
func equalBSON(a, b interface{}) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	ab, aok := binaryBytes(a)
	bb, bok := binaryBytes(b)
	return aok && bok && bytes.Equal(ab, bb)
}

func binaryBytes(v interface{}) ([]byte, bool) {
	if bin, ok := v.(primitive.Binary); ok {
		return bin.Data, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 && rv.Type() != reflect.TypeOf(primitive.ObjectID{}) {
		out := make([]byte, rv.Len())
		for i := range out {
			out[i] = byte(rv.Index(i).Uint())
		}
		return out, true
	}
	return nil, false
}

func applyUpdate(doc bson.M, update Update) (bool, error) {
	changed := false
	for op, spec := range update {
		fields, ok := spec.(bson.M)
		if !ok {
			return changed, fmt.Errorf("unsupported update spec %T for %s", spec, op)
		}
		switch op {
		case "$pull":
			for field, cond := range fields {
				arr, ok := doc[field].(primitive.A)
				if !ok {
					continue
				}
				var kept primitive.A
				for _, elem := range arr {
					if pullMatches(elem, cond) {
						changed = true
						continue
					}
					kept = append(kept, elem)
				}
				doc[field] = kept
			}
		case "$set":
			for field, val := range fields {
				if !equalBSON(doc[field], val) {
					doc[field] = val
					changed = true
				}
			}
		default:
			return changed, fmt.Errorf("unsupported update operator %s", op)
		}
	}
	return changed, nil
}

// pullMatches evaluates a $pull element condition: a document condition
// matches when every field condition holds (equality or $in), anything
// else by direct equality.
func pullMatches(elem, cond interface{}) bool {
	condDoc, ok := cond.(bson.M)
	if !ok {
		return equalBSON(elem, cond)
	}
	elemDoc, ok := elem.(bson.M)
	if !ok {
		return false
	}
	for k, v := range condDoc {
		if !matchCondition([]interface{}{elemDoc[k]}, v) {
			return false
		}
	}
	return true
}
