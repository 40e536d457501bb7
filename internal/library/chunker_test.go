package library

import (
	"testing"
	"time"
)

func items(n int) []LibraryItem {
	out := make([]LibraryItem, n)
	for i := range out {
		out[i] = LibraryItem{ID: PhotoRef{ID: int64(i + 1), Path: "/p"}.String()}
	}
	return out
}

// steppingClock advances by step on every read.
func steppingClock(step time.Duration) func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func runChunker(c *chunker, in []LibraryItem) []Chunk {
	var out []Chunk
	for i, it := range in {
		if chunk, _, ok := c.add(it, i == len(in)-1); ok {
			out = append(out, chunk)
		}
	}
	if chunk, ok := c.finish(); ok {
		out = append(out, chunk)
	}
	return out
}

func TestChunkerCountTrigger(t *testing.T) {
	t.Parallel()

	c := newChunker(ChunkingPolicy{ItemsPerChunk: 3}, time.Now)
	got := runChunker(c, items(7))

	wantSizes := []int{3, 3, 1}
	wantLast := []bool{false, false, true}
	if len(got) != len(wantSizes) {
		t.Fatalf("got %d chunks, want %d", len(got), len(wantSizes))
	}
	for i, chunk := range got {
		if len(chunk.Items) != wantSizes[i] || chunk.IsLast != wantLast[i] || chunk.Index != i {
			t.Errorf("chunk %d = {size %d, last %v, index %d}, want {size %d, last %v, index %d}",
				i, len(chunk.Items), chunk.IsLast, chunk.Index, wantSizes[i], wantLast[i], i)
		}
	}
	if !c.finished() {
		t.Error("chunker should be finished after the last item")
	}
}

func TestChunkerExactMultiple(t *testing.T) {
	t.Parallel()

	got := runChunker(newChunker(ChunkingPolicy{ItemsPerChunk: 3}, time.Now), items(6))

	if len(got) != 2 {
		t.Fatalf("got %d chunks, want 2", len(got))
	}
	if got[0].IsLast || !got[1].IsLast || len(got[1].Items) != 3 {
		t.Errorf("chunks = %+v, want [3 not last, 3 last]", got)
	}
}

func TestChunkerUnbounded(t *testing.T) {
	t.Parallel()

	got := runChunker(newChunker(ChunkingPolicy{}, steppingClock(time.Hour)), items(50))

	if len(got) != 1 {
		t.Fatalf("got %d chunks, want 1", len(got))
	}
	if len(got[0].Items) != 50 || !got[0].IsLast || got[0].Index != 0 {
		t.Errorf("chunk = {size %d, last %v, index %d}, want {50, true, 0}", len(got[0].Items), got[0].IsLast, got[0].Index)
	}
}

func TestChunkerTimeTrigger(t *testing.T) {
	t.Parallel()

	// Every clock read advances one second; the chunk start is itself a read.
	c := newChunker(ChunkingPolicy{MaxChunkDuration: 2 * time.Second}, steppingClock(time.Second))
	got := runChunker(c, items(5))

	wantSizes := []int{2, 2, 1}
	if len(got) != len(wantSizes) {
		t.Fatalf("got %d chunks, want %d", len(got), len(wantSizes))
	}
	for i, chunk := range got {
		if len(chunk.Items) != wantSizes[i] {
			t.Errorf("chunk %d has %d items, want %d", i, len(chunk.Items), wantSizes[i])
		}
	}
	if !got[2].IsLast {
		t.Error("final chunk should be marked last")
	}
}

func TestChunkerEitherTriggerFlushes(t *testing.T) {
	t.Parallel()

	c := newChunker(ChunkingPolicy{ItemsPerChunk: 2, MaxChunkDuration: time.Hour}, steppingClock(time.Second))
	for i, it := range items(3) {
		chunk, trigger, ok := c.add(it, i == 2)
		switch i {
		case 0:
			if ok {
				t.Fatal("first item should not flush")
			}
		case 1:
			if !ok || trigger != triggerCount {
				t.Fatalf("second item: ok=%v trigger=%q, want count flush", ok, trigger)
			}
		case 2:
			if !ok || trigger != triggerLast || !chunk.IsLast || chunk.Index != 1 {
				t.Fatalf("third item: ok=%v trigger=%q chunk=%+v, want last flush at index 1", ok, trigger, chunk)
			}
		}
	}
}

func TestChunkerEmpty(t *testing.T) {
	t.Parallel()

	got := runChunker(newChunker(ChunkingPolicy{ItemsPerChunk: 3}, time.Now), nil)

	if len(got) != 1 {
		t.Fatalf("got %d chunks, want 1", len(got))
	}
	if got[0].Items == nil || len(got[0].Items) != 0 || !got[0].IsLast || got[0].Index != 0 {
		t.Errorf("chunk = %+v, want empty non-nil last chunk 0", got[0])
	}
}

func TestChunkerIgnoresItemsAfterLast(t *testing.T) {
	t.Parallel()

	c := newChunker(ChunkingPolicy{}, time.Now)
	if _, _, ok := c.add(LibraryItem{}, true); !ok {
		t.Fatal("last item should flush")
	}
	if _, _, ok := c.add(LibraryItem{}, false); ok {
		t.Error("add after the last chunk should be ignored")
	}
	if _, ok := c.finish(); ok {
		t.Error("finish after the last chunk should report nothing")
	}
}
