package worker

import (
	"context"

	"github.com/devphaseX/assoc-api/internal/fileobject"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

type TaskProcessor interface {
	Start() error
	Close()
	ProcessTaskDeleteFileObject(ctx context.Context, task *asynq.Task) error
}

type RedisTaskProcessor struct {
	server     *asynq.Server
	fileobject fileobject.FileObject
	logger     *zap.SugaredLogger
}

func NewRedisTaskProcessor(redisOpt asynq.RedisClientOpt, fileObject fileobject.FileObject, logger *zap.SugaredLogger) TaskProcessor {
	server := asynq.NewServer(redisOpt, asynq.Config{
		Queues: map[string]int{
			QueueCritical: 10,
			QueueDefault:  5,
		},

		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Errorw("failed to process task",
				"type", task.Type(),
				"payload", string(task.Payload()),
				"error", err,
			)
		}),
		Concurrency: 10,
		Logger:      NewLogger(logger),
	})

	return &RedisTaskProcessor{
		server:     server,
		fileobject: fileObject,
		logger:     logger,
	}
}

func (processor *RedisTaskProcessor) Start() error {
	mux := asynq.NewServeMux()

	mux.HandleFunc(TaskDeleteFileObject, processor.ProcessTaskDeleteFileObject)

	return processor.server.Start(mux)
}

func (processor *RedisTaskProcessor) Close() {
	processor.server.Shutdown()
}
