package persistence

import (
	"context"
	"log/slog"

	"uctl/internal/bus"
	"uctl/internal/device"
)

// SnapshotProjection mirrors snapshot publications into the cache table.
// It listens on the message bus so device managers stay unaware of storage.
type SnapshotProjection struct {
	bus    bus.MessageBus
	repo   *SnapshotRepo
	writer *WriterQueue
	logger *slog.Logger
}

func NewSnapshotProjection(messageBus bus.MessageBus, repo *SnapshotRepo, writer *WriterQueue, logger *slog.Logger) *SnapshotProjection {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &SnapshotProjection{
		bus:    messageBus,
		repo:   repo,
		writer: writer,
		logger: logger,
	}
}

func (p *SnapshotProjection) Start(ctx context.Context) {
	sub := p.bus.Subscribe(device.TopicSnapshot)

	go func() {
		defer p.bus.Unsubscribe(sub, device.TopicSnapshot)

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub:
				if !ok {
					return
				}

				update, isUpdate := msg.(device.SnapshotUpdate)
				if !isUpdate {
					p.logger.Warn("Unexpected payload on snapshot topic", "payload", msg)

					continue
				}

				snapshot := update.Snapshot
				p.writer.Enqueue("save "+string(snapshot.Domain)+" snapshot", func(writeCtx context.Context) error {
					return p.repo.Save(writeCtx, snapshot)
				})
			}
		}
	}()
}
