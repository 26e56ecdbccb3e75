package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// TaskTypePush is the queue task name for one push delivery attempt.
const TaskTypePush = "notification:push"

const queueName = "notifications"

// Queue enqueues push deliveries as asynq tasks so the messaging path never
// waits on the push gateway. Deliveries are not retried: a failed push is
// logged and dropped.
type Queue struct {
	client *asynq.Client
}

func NewQueue(redisAddr string) *Queue {
	return &Queue{
		client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr}),
	}
}

func (q *Queue) Close() error {
	return q.client.Close()
}

func (q *Queue) enqueue(ctx context.Context, p Push) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	task := asynq.NewTask(TaskTypePush, payload)
	_, err = q.client.EnqueueContext(ctx, task, asynq.Queue(queueName), asynq.MaxRetry(0))
	if err != nil {
		return fmt.Errorf("enqueue push: %w", err)
	}
	return nil
}

// EnqueueMessagePush queues the notification for a newly received direct
// message.
func (q *Queue) EnqueueMessagePush(ctx context.Context, token, senderName, body string) error {
	return q.enqueue(ctx, Push{
		Token: token,
		Title: "TrackMate @" + senderName,
		Body:  CleanBody(body),
	})
}

// EnqueueAnnouncement queues a track announcement notification.
func (q *Queue) EnqueueAnnouncement(ctx context.Context, token, trackName, body string) error {
	return q.enqueue(ctx, Push{
		Token:    token,
		Title:    "TrackMate",
		Subtitle: "New announcement for " + trackName,
		Body:     CleanBody(body),
	})
}

// NewWorker builds the asynq server that drains the notification queue
// through the given bridge. Failures are swallowed after logging; the task
// is never retried.
func NewWorker(redisAddr string, bridge Bridge, log *logrus.Logger) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 10,
			Queues:      map[string]int{queueName: 1},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypePush, func(ctx context.Context, t *asynq.Task) error {
		var p Push
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			log.WithError(err).Error("malformed push payload")
			return nil
		}
		if err := bridge.Send(ctx, p); err != nil {
			log.WithError(err).WithField("title", p.Title).Error("push delivery failed")
		}
		return nil
	})

	return srv, mux
}
