package kv

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// errNotFound is returned by entity reads; callers map it to the
// entity-specific store error.
var errNotFound = errors.New("kv: key not found")

// indexConflictError reports a unique index that already holds a value.
type indexConflictError struct {
	index string
	value string
}

func (e *indexConflictError) Error() string {
	return fmt.Sprintf("index %s conflict on key %s", e.index, e.value)
}

// entity provides transaction-scoped CRUD for one record type.
//
// Keys:
//
//	{prefix}{id}                          → JSON record
//	{prefix}idx:{name}:{value}            → id     (unique index)
//	{prefix}idx:{name}:{value}:{id}       → empty  (multi-valued index)
type entity[T any] struct {
	prefix  string
	idOf    func(*T) string
	indexes []index[T]
}

type index[T any] struct {
	name   string
	unique bool
	keyGen func(*T) []string
}

func newEntity[T any](prefix string, idOf func(*T) string) *entity[T] {
	return &entity[T]{prefix: prefix, idOf: idOf}
}

// withUniqueIndex adds an index whose values map to exactly one record.
func (e *entity[T]) withUniqueIndex(name string, keyGen func(*T) []string) *entity[T] {
	e.indexes = append(e.indexes, index[T]{name: name, unique: true, keyGen: keyGen})
	return e
}

// withIndex adds a multi-valued index usable for prefix scans.
func (e *entity[T]) withIndex(name string, keyGen func(*T) []string) *entity[T] {
	e.indexes = append(e.indexes, index[T]{name: name, keyGen: keyGen})
	return e
}

func (e *entity[T]) key(id string) []byte {
	return []byte(e.prefix + id)
}

func (e *entity[T]) indexPrefix(name, value string) string {
	return e.prefix + "idx:" + name + ":" + value
}

func (e *entity[T]) indexKey(idx index[T], value, id string) []byte {
	if idx.unique {
		return []byte(e.indexPrefix(idx.name, value))
	}
	return []byte(e.indexPrefix(idx.name, value) + ":" + id)
}

// get loads the record with the given id.
func (e *entity[T]) get(txn *badger.Txn, id string) (*T, error) {
	key := buildKey(e.prefix, id)
	defer releaseKey(key)

	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	var v T
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &v)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return &v, nil
}

// getMany loads records by id, skipping ids that do not exist.
func (e *entity[T]) getMany(txn *badger.Txn, ids []string) ([]*T, error) {
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		v, err := e.get(txn, id)
		if errors.Is(err, errNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// lookup resolves a unique index value to a record id.
func (e *entity[T]) lookup(txn *badger.Txn, name, value string) (string, error) {
	key := buildKey(e.prefix, "idx:", name, ":", value)
	defer releaseKey(key)

	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", errNotFound
	}
	if err != nil {
		return "", err
	}

	var id string
	err = item.Value(func(val []byte) error {
		id = string(val)
		return nil
	})
	return id, err
}

// getBy loads the record a unique index value points to.
func (e *entity[T]) getBy(txn *badger.Txn, name, value string) (*T, error) {
	id, err := e.lookup(txn, name, value)
	if err != nil {
		return nil, err
	}
	return e.get(txn, id)
}

// scanIndex returns the ids stored under a multi-valued index value.
func (e *entity[T]) scanIndex(txn *badger.Txn, name, value string) []string {
	prefix := []byte(e.indexPrefix(name, value) + ":")

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		ids = append(ids, string(it.Item().Key()[len(prefix):]))
	}
	return ids
}

// scan calls fn for every record. Iteration stops when fn returns false.
func (e *entity[T]) scan(txn *badger.Txn, fn func(*T) bool) error {
	prefix := []byte(e.prefix)
	idxPrefix := e.prefix + "idx:"

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchSize = 100

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		if strings.HasPrefix(string(item.Key()), idxPrefix) {
			continue
		}

		var v T
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		}); err != nil {
			return fmt.Errorf("failed to unmarshal entity: %w", err)
		}
		if !fn(&v) {
			return nil
		}
	}
	return nil
}

// count returns the number of records without decoding them.
func (e *entity[T]) count(txn *badger.Txn) int {
	prefix := []byte(e.prefix)
	idxPrefix := e.prefix + "idx:"

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	n := 0
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if !strings.HasPrefix(string(it.Item().Key()), idxPrefix) {
			n++
		}
	}
	return n
}

// insert writes a new record and its index keys.
// Returns *indexConflictError if a unique index value is taken.
func (e *entity[T]) insert(txn *badger.Txn, v *T) error {
	id := e.idOf(v)
	if _, err := txn.Get(e.key(id)); err == nil {
		return &indexConflictError{index: "id", value: id}
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("failed to check existing key: %w", err)
	}

	if err := e.checkUnique(txn, v, nil); err != nil {
		return err
	}
	return e.write(txn, v, nil)
}

// replace overwrites old with v, moving index keys that changed.
func (e *entity[T]) replace(txn *badger.Txn, old, v *T) error {
	if err := e.checkUnique(txn, v, old); err != nil {
		return err
	}
	return e.write(txn, v, old)
}

// remove deletes the record and its index keys.
func (e *entity[T]) remove(txn *badger.Txn, v *T) error {
	id := e.idOf(v)
	for _, idx := range e.indexes {
		for _, value := range idx.keyGen(v) {
			if err := txn.Delete(e.indexKey(idx, value, id)); err != nil {
				return fmt.Errorf("failed to delete index key: %w", err)
			}
		}
	}
	if err := txn.Delete(e.key(id)); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

func (e *entity[T]) checkUnique(txn *badger.Txn, v, old *T) error {
	for _, idx := range e.indexes {
		if !idx.unique {
			continue
		}

		var kept map[string]bool
		if old != nil {
			kept = make(map[string]bool)
			for _, value := range idx.keyGen(old) {
				kept[value] = true
			}
		}

		for _, value := range idx.keyGen(v) {
			if kept[value] {
				continue
			}
			_, err := txn.Get(e.indexKey(idx, value, ""))
			if err == nil {
				return &indexConflictError{index: idx.name, value: value}
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("failed to check index key: %w", err)
			}
		}
	}
	return nil
}

func (e *entity[T]) write(txn *badger.Txn, v, old *T) error {
	id := e.idOf(v)

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	for _, idx := range e.indexes {
		values := idx.keyGen(v)
		fresh := make(map[string]bool, len(values))
		for _, value := range values {
			fresh[value] = true
		}

		if old != nil {
			for _, value := range idx.keyGen(old) {
				if fresh[value] {
					continue
				}
				if err := txn.Delete(e.indexKey(idx, value, id)); err != nil {
					return fmt.Errorf("failed to delete old index key: %w", err)
				}
			}
		}

		ref := []byte{}
		if idx.unique {
			ref = []byte(id)
		}
		for _, value := range values {
			if err := txn.Set(e.indexKey(idx, value, id), ref); err != nil {
				return fmt.Errorf("failed to set index key: %w", err)
			}
		}
	}

	if err := txn.Set(e.key(id), data); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	return nil
}
