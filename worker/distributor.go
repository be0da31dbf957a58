package worker

import (
	"context"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type TaskDistributor interface {
	DistributeTaskDeleteFileObject(ctx context.Context, payload *PayloadDeleteFileObject, opts ...asynq.Option) error
	Close() error
}

type RedisTaskDistributor struct {
	logger *zap.SugaredLogger
	client *asynq.Client
}

func NewTaskDistributor(redisOpt asynq.RedisClientOpt, logger *zap.SugaredLogger) TaskDistributor {
	client := asynq.NewClient(redisOpt)

	return &RedisTaskDistributor{
		logger: logger,
		client: client,
	}
}

func (rt *RedisTaskDistributor) Close() error {
	return rt.client.Close()
}
