package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const TaskDeleteFileObject = "task:delete_file_object"

type PayloadDeleteFileObject struct {
	ObjectKey string `json:"object_key"`
	Reason    string `json:"reason"`
}

func (rt *RedisTaskDistributor) DistributeTaskDeleteFileObject(ctx context.Context, payload *PayloadDeleteFileObject, opts ...asynq.Option) error {
	task, err := NewDeleteFileObjectTask(payload, opts...)
	if err != nil {
		return err
	}

	taskInfo, err := rt.client.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}

	rt.logger.Infow("enqueued task",
		"type", taskInfo.Type,
		"queue", taskInfo.Queue,
		"max_retry", taskInfo.MaxRetry,
		"key", payload.ObjectKey,
	)

	return nil
}

// NewDeleteFileObjectTask builds the task; duplicates for the same key within a
// minute are rejected by asynq.
func NewDeleteFileObjectTask(payload *PayloadDeleteFileObject, opts ...asynq.Option) (*asynq.Task, error) {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task payload: %w", err)
	}

	options := append([]asynq.Option{
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(0),
		asynq.Unique(time.Minute),
	}, opts...)

	return asynq.NewTask(TaskDeleteFileObject, jsonPayload, options...), nil
}

// ProcessTaskDeleteFileObject never asks asynq to retry: storage deletion is
// best-effort and a false result is only logged.
func (processor *RedisTaskProcessor) ProcessTaskDeleteFileObject(ctx context.Context, task *asynq.Task) error {
	var payload PayloadDeleteFileObject

	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", asynq.SkipRetry)
	}

	if payload.ObjectKey == "" {
		return fmt.Errorf("empty object key: %w", asynq.SkipRetry)
	}

	if !processor.fileobject.DeleteFile(ctx, payload.ObjectKey) {
		processor.logger.Warnw("file object cleanup failed", "key", payload.ObjectKey, "reason", payload.Reason)
		return fmt.Errorf("delete %q: %w", payload.ObjectKey, asynq.SkipRetry)
	}

	processor.logger.Infow("file object cleaned up", "key", payload.ObjectKey, "reason", payload.Reason)
	return nil
}
