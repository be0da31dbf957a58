package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/devphaseX/assoc-api/internal/fileobject"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubFileObject struct {
	deleted []string
	result  bool
}

func (s *stubFileObject) UploadFile(ctx context.Context, req fileobject.UploadRequest) (*fileobject.UploadResult, error) {
	return nil, errors.New("not implemented")
}

func (s *stubFileObject) DeleteFile(ctx context.Context, objectKey string) bool {
	s.deleted = append(s.deleted, objectKey)
	return s.result
}

func TestNewDeleteFileObjectTask(t *testing.T) {
	task, err := NewDeleteFileObjectTask(&PayloadDeleteFileObject{ObjectKey: "abc123", Reason: "avatar_replaced"})
	require.NoError(t, err)

	assert.Equal(t, TaskDeleteFileObject, task.Type())

	var payload PayloadDeleteFileObject
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "abc123", payload.ObjectKey)
}

func TestProcessTaskDeleteFileObject(t *testing.T) {
	tests := []struct {
		name      string
		payload   []byte
		result    bool
		wantErr   bool
		wantCalls []string
	}{
		{name: "deleted", payload: []byte(`{"object_key":"abc123"}`), result: true, wantCalls: []string{"abc123"}},
		{name: "storage refused", payload: []byte(`{"object_key":"abc123"}`), result: false, wantErr: true, wantCalls: []string{"abc123"}},
		{name: "bad payload", payload: []byte(`{`), wantErr: true},
		{name: "empty key", payload: []byte(`{"object_key":""}`), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubFileObject{result: tt.result}
			processor := &RedisTaskProcessor{fileobject: stub, logger: zap.NewNop().Sugar()}

			err := processor.ProcessTaskDeleteFileObject(context.Background(), asynq.NewTask(TaskDeleteFileObject, tt.payload))
			if tt.wantErr {
				require.ErrorIs(t, err, asynq.SkipRetry)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.wantCalls, stub.deleted)
		})
	}
}
