package library

import "time"

type chunkState int

const (
	accumulating chunkState = iota
	flushing
	done
)

// Flush triggers, as reported to metrics.
const (
	triggerCount = "count"
	triggerTime  = "time"
	triggerLast  = "last"
)

// chunker groups items into chunks under a ChunkingPolicy. A chunk is
// flushed when it reaches ItemsPerChunk items, when MaxChunkDuration has
// passed since it was started, or when the last item arrives.
type chunker struct {
	policy  ChunkingPolicy
	now     func() time.Time
	state   chunkState
	items   []LibraryItem
	index   int
	started time.Time
}

func newChunker(policy ChunkingPolicy, now func() time.Time) *chunker {
	return &chunker{
		policy:  policy,
		now:     now,
		state:   accumulating,
		items:   make([]LibraryItem, 0, chunkCapacity(policy)),
		started: now(),
	}
}

func chunkCapacity(p ChunkingPolicy) int {
	if p.ItemsPerChunk > 0 && p.ItemsPerChunk < 1024 {
		return p.ItemsPerChunk
	}
	return 64
}

// add appends item. When a chunk is ready it is returned with ok set and
// the trigger that flushed it; last marks item as the final one.
func (c *chunker) add(item LibraryItem, last bool) (chunk Chunk, trigger string, ok bool) {
	if c.state == done {
		return Chunk{}, "", false
	}

	c.items = append(c.items, item)

	switch {
	case last:
		trigger = triggerLast
	case c.policy.ItemsPerChunk > 0 && len(c.items) >= c.policy.ItemsPerChunk:
		trigger = triggerCount
	case c.policy.MaxChunkDuration > 0 && c.now().Sub(c.started) >= c.policy.MaxChunkDuration:
		trigger = triggerTime
	default:
		return Chunk{}, "", false
	}

	c.state = flushing
	return c.flush(last), trigger, true
}

// finish returns whatever is pending as the last chunk. It reports false if
// the last chunk was already emitted.
func (c *chunker) finish() (Chunk, bool) {
	if c.state == done {
		return Chunk{}, false
	}
	c.state = flushing
	return c.flush(true), true
}

func (c *chunker) flush(last bool) Chunk {
	chunk := Chunk{Items: c.items, Index: c.index, IsLast: last}

	if last {
		c.state = done
		c.items = nil
		return chunk
	}

	c.index++
	c.items = make([]LibraryItem, 0, chunkCapacity(c.policy))
	c.started = c.now()
	c.state = accumulating
	return chunk
}

func (c *chunker) finished() bool {
	return c.state == done
}
