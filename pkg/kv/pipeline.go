package kv

import "context"

// Pipeline queues commands and sends them to the backend as one batch.
// Every queuing method returns the Op whose result fields are populated by
// Exec. A Pipeline is not safe for concurrent use.
type Pipeline struct {
	store Store
	ops   []*Op
}

func (p *Pipeline) queue(op *Op) *Op {
	p.ops = append(p.ops, op)
	return op
}

// Get queues a string read; the result lands in Str and Found.
func (p *Pipeline) Get(key string) *Op {
	return p.queue(&Op{Kind: OpGet, Key: key})
}

// Set queues a string write.
func (p *Pipeline) Set(key, value string) *Op {
	return p.queue(&Op{Kind: OpSet, Key: key, Value: value})
}

// Incr queues an atomic increment; the new value lands in Int.
func (p *Pipeline) Incr(key string) *Op {
	return p.queue(&Op{Kind: OpIncr, Key: key})
}

// HGet queues a single hash field read; the result lands in Str and Found.
func (p *Pipeline) HGet(key, field string) *Op {
	return p.queue(&Op{Kind: OpHGet, Key: key, Field: field})
}

// HMGet queues a multi-field read. Map holds only the fields that exist.
func (p *Pipeline) HMGet(key string, fields ...string) *Op {
	return p.queue(&Op{Kind: OpHMGet, Key: key, Fields: fields})
}

// HGetAll queues a full hash read into Map, empty for a missing key.
func (p *Pipeline) HGetAll(key string) *Op {
	return p.queue(&Op{Kind: OpHGetAll, Key: key})
}

// HSet queues a hash write. Empty maps are dropped, matching Client.HSet.
func (p *Pipeline) HSet(key string, values map[string]string) *Op {
	op := &Op{Kind: OpHSet, Key: key, Values: values}
	if len(values) == 0 {
		return op
	}
	return p.queue(op)
}

// HSetNX queues a field write that only applies when the field is absent.
// Bool reports whether it was written.
func (p *Pipeline) HSetNX(key, field, value string) *Op {
	return p.queue(&Op{Kind: OpHSetNX, Key: key, Field: field, Value: value})
}

// HDel queues removal of hash fields. A hash left empty is deleted.
func (p *Pipeline) HDel(key string, fields ...string) *Op {
	return p.queue(&Op{Kind: OpHDel, Key: key, Fields: fields})
}

// Del queues key deletion; Int holds the number removed. An empty key list
// is dropped.
func (p *Pipeline) Del(keys ...string) *Op {
	op := &Op{Kind: OpDel, Keys: keys}
	if len(keys) == 0 {
		return op
	}
	return p.queue(op)
}

// Exists queues a key existence check reported in Bool.
func (p *Pipeline) Exists(key string) *Op {
	return p.queue(&Op{Kind: OpExists, Key: key})
}

// Rename queues a key rename, overwriting dst. It fails with ErrNoSuchKey
// when src is missing.
func (p *Pipeline) Rename(src, dst string) *Op {
	return p.queue(&Op{Kind: OpRename, Key: src, Dst: dst})
}

// Len returns the number of queued commands.
func (p *Pipeline) Len() int {
	return len(p.ops)
}

// Exec sends the queued commands and clears the queue. An empty pipeline is
// a no-op.
func (p *Pipeline) Exec(ctx context.Context) error {
	if len(p.ops) == 0 {
		return nil
	}
	ops := p.ops
	p.ops = nil
	return p.store.Exec(ctx, ops)
}
