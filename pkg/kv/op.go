package kv

import (
	"fmt"
	"math"
	"strconv"
)

// OpKind identifies a backend command.
type OpKind int

const (
	OpGet OpKind = iota
	OpSet
	OpSetNX
	OpIncr
	OpHGet
	OpHMGet
	OpHGetAll
	OpHSet
	OpHSetNX
	OpHDel
	OpDel
	OpExists
	OpRename
)

var opNames = [...]string{
	OpGet:     "get",
	OpSet:     "set",
	OpSetNX:   "setnx",
	OpIncr:    "incr",
	OpHGet:    "hget",
	OpHMGet:   "hmget",
	OpHGetAll: "hgetall",
	OpHSet:    "hset",
	OpHSetNX:  "hsetnx",
	OpHDel:    "hdel",
	OpDel:     "del",
	OpExists:  "exists",
	OpRename:  "rename",
}

func (k OpKind) String() string {
	if k >= 0 && int(k) < len(opNames) {
		return opNames[k]
	}
	return fmt.Sprintf("op(%d)", int(k))
}

// Op is one queued command together with its result.
//
// Inputs are Kind, Key and whichever of Dst, Field, Value, Fields, Values and
// Keys the command uses. After execution exactly one result field is
// meaningful for the command:
//
//	get, hget           Str, Found
//	setnx, hsetnx       Bool (true if written)
//	exists              Bool
//	incr                Int (new value)
//	hset                Int (fields added)
//	hdel, del           Int (fields/keys removed)
//	hmget               Map (present fields only)
//	hgetall             Map (empty, never nil)
type Op struct {
	Kind   OpKind
	Key    string
	Dst    string
	Field  string
	Value  string
	Fields []string
	Values map[string]string
	Keys   []string

	Str   string
	Found bool
	Bool  bool
	Int   int64
	Map   map[string]string
	Err   error
}

func (o *Op) reset() {
	o.Str, o.Found, o.Bool, o.Int, o.Map, o.Err = "", false, false, 0, nil, nil
}

// EntryKind tells a string entry from a hash entry.
type EntryKind int

const (
	EntryString EntryKind = iota
	EntryHash
)

// Entry is the value stored under one key by embedded backends.
type Entry struct {
	Kind EntryKind         `json:"k"`
	Str  string            `json:"s,omitempty"`
	Hash map[string]string `json:"h,omitempty"`
}

func (e *Entry) clone() *Entry {
	c := &Entry{Kind: e.Kind, Str: e.Str}
	if e.Hash != nil {
		c.Hash = make(map[string]string, len(e.Hash))
		for k, v := range e.Hash {
			c.Hash[k] = v
		}
	}
	return c
}

// Txn is the keyspace view an embedded backend exposes while a batch is
// applied. Load returns nil for a missing key and must not hand out an entry
// the caller may mutate; Save with a nil entry deletes the key.
type Txn interface {
	Load(key string) (*Entry, error)
	Save(key string, e *Entry) error
}

// Apply runs ops against txn in order, stopping at the first failing op. It
// implements the command semantics shared by the embedded backends; the
// caller owns atomicity (commit or roll back based on the returned error).
func Apply(txn Txn, ops []*Op) error {
	for _, op := range ops {
		op.reset()
		if err := applyOne(txn, op); err != nil {
			op.Err = err
			return err
		}
	}
	return nil
}

func loadKind(txn Txn, key string, kind EntryKind) (*Entry, error) {
	e, err := txn.Load(key)
	if err != nil {
		return nil, err
	}
	if e != nil && e.Kind != kind {
		return nil, fmt.Errorf("%w: %s", ErrWrongType, key)
	}
	return e, nil
}

func applyOne(txn Txn, op *Op) error {
	switch op.Kind {
	case OpGet:
		e, err := loadKind(txn, op.Key, EntryString)
		if err != nil {
			return err
		}
		if e != nil {
			op.Str, op.Found = e.Str, true
		}

	case OpSet:
		return txn.Save(op.Key, &Entry{Kind: EntryString, Str: op.Value})

	case OpSetNX:
		e, err := txn.Load(op.Key)
		if err != nil {
			return err
		}
		if e != nil {
			return nil
		}
		op.Bool = true
		return txn.Save(op.Key, &Entry{Kind: EntryString, Str: op.Value})

	case OpIncr:
		e, err := loadKind(txn, op.Key, EntryString)
		if err != nil {
			return err
		}
		var cur int64
		if e != nil {
			cur, err = strconv.ParseInt(e.Str, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: %s", ErrNotInteger, op.Key)
			}
		}
		if cur == math.MaxInt64 {
			return fmt.Errorf("%w: %s", ErrNotInteger, op.Key)
		}
		op.Int = cur + 1
		return txn.Save(op.Key, &Entry{Kind: EntryString, Str: strconv.FormatInt(op.Int, 10)})

	case OpHGet:
		e, err := loadKind(txn, op.Key, EntryHash)
		if err != nil {
			return err
		}
		if e != nil {
			op.Str, op.Found = e.Hash[op.Field]
		}

	case OpHMGet:
		e, err := loadKind(txn, op.Key, EntryHash)
		if err != nil {
			return err
		}
		op.Map = make(map[string]string, len(op.Fields))
		if e != nil {
			for _, f := range op.Fields {
				if v, ok := e.Hash[f]; ok {
					op.Map[f] = v
				}
			}
		}

	case OpHGetAll:
		e, err := loadKind(txn, op.Key, EntryHash)
		if err != nil {
			return err
		}
		op.Map = make(map[string]string)
		if e != nil {
			for k, v := range e.Hash {
				op.Map[k] = v
			}
		}

	case OpHSet:
		if len(op.Values) == 0 {
			return nil
		}
		e, err := loadKind(txn, op.Key, EntryHash)
		if err != nil {
			return err
		}
		if e == nil {
			e = &Entry{Kind: EntryHash, Hash: make(map[string]string, len(op.Values))}
		} else {
			e = e.clone()
		}
		for k, v := range op.Values {
			if _, ok := e.Hash[k]; !ok {
				op.Int++
			}
			e.Hash[k] = v
		}
		return txn.Save(op.Key, e)

	case OpHSetNX:
		e, err := loadKind(txn, op.Key, EntryHash)
		if err != nil {
			return err
		}
		if e == nil {
			e = &Entry{Kind: EntryHash, Hash: make(map[string]string, 1)}
		} else if _, ok := e.Hash[op.Field]; ok {
			return nil
		} else {
			e = e.clone()
		}
		e.Hash[op.Field] = op.Value
		op.Bool = true
		return txn.Save(op.Key, e)

	case OpHDel:
		e, err := loadKind(txn, op.Key, EntryHash)
		if err != nil || e == nil {
			return err
		}
		e = e.clone()
		for _, f := range op.Fields {
			if _, ok := e.Hash[f]; ok {
				delete(e.Hash, f)
				op.Int++
			}
		}
		if op.Int == 0 {
			return nil
		}
		// Hashes never exist empty.
		if len(e.Hash) == 0 {
			return txn.Save(op.Key, nil)
		}
		return txn.Save(op.Key, e)

	case OpDel:
		for _, k := range op.Keys {
			e, err := txn.Load(k)
			if err != nil {
				return err
			}
			if e == nil {
				continue
			}
			if err := txn.Save(k, nil); err != nil {
				return err
			}
			op.Int++
		}

	case OpExists:
		e, err := txn.Load(op.Key)
		if err != nil {
			return err
		}
		op.Bool = e != nil

	case OpRename:
		e, err := txn.Load(op.Key)
		if err != nil {
			return err
		}
		if e == nil {
			return fmt.Errorf("%w: %s", ErrNoSuchKey, op.Key)
		}
		if op.Key == op.Dst {
			return nil
		}
		if err := txn.Save(op.Dst, e.clone()); err != nil {
			return err
		}
		return txn.Save(op.Key, nil)

	default:
		return fmt.Errorf("unsupported operation %s", op.Kind)
	}
	return nil
}
