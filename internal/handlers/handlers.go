package handlers

import (
	"context"
	"sync"

	"photo-library/internal/database"
	"photo-library/internal/importer"
	"photo-library/internal/indexer"
	"photo-library/internal/library"
	"photo-library/internal/memory"
	"photo-library/internal/metrics"
	"photo-library/internal/startup"
	"photo-library/internal/streaming"
	"photo-library/internal/workers"
)

type Handlers struct {
	db       *database.Database
	indexer  *indexer.Indexer
	library  *library.Service
	importer *importer.Importer
	mediaDir string

	policy    library.ChunkingPolicy
	stream    streaming.Config
	renders   chan struct{}
	memory    *memory.Monitor
	tokenHash []byte
	verified  sync.Map
}

func New(db *database.Database, idx *indexer.Indexer, lib *library.Service, imp *importer.Importer, config *startup.Config) *Handlers {
	return &Handlers{
		db:       db,
		indexer:  idx,
		library:  lib,
		importer: imp,
		mediaDir: config.MediaDir,
		policy: library.ChunkingPolicy{
			ItemsPerChunk:    config.DefaultChunkItems,
			MaxChunkDuration: config.DefaultChunkDuration(),
		},
		stream:    streaming.DefaultConfig(),
		renders:   make(chan struct{}, workers.ForRender()),
		tokenHash: []byte(config.AccessTokenHash),
	}
}

// SetMemoryMonitor holds renders back while m reports memory pressure.
func (h *Handlers) SetMemoryMonitor(m *memory.Monitor) {
	h.memory = m
}

// acquireRender blocks until a render slot is free and memory allows a
// decode. The returned func releases the slot.
func (h *Handlers) acquireRender(ctx context.Context) (func(), error) {
	if err := h.memory.Wait(ctx); err != nil {
		return nil, err
	}

	select {
	case h.renders <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	metrics.RenderWorkersBusy.Inc()

	return func() {
		metrics.RenderWorkersBusy.Dec()
		<-h.renders
	}, nil
}
