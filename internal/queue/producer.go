package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type Producer interface {
	Enqueue(ctx context.Context, msg RunMessage) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) Enqueue(ctx context.Context, msg RunMessage) error {
	if msg.TaskType == "" {
		msg.TaskType = TaskTypeWorkflowRun
	}
	attempt := msg.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	values := messageValues(Message{
		TaskType: msg.TaskType,
		RunID:    msg.RunID,
		TaskID:   msg.TaskID,
		Step:     msg.Step,
		TraceID:  msg.TraceID,
	}, attempt)

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue workflow run: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued workflow run",
		"task_type", msg.TaskType,
		"run_id", msg.RunID,
		"task_id", msg.TaskID,
		"attempt", attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
