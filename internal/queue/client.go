package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/pdfnarrator/internal/config"
)

type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueNarrationProcess hands a stored job to the worker. The generous
// timeout covers large documents on sequential engines; retries cover
// transient Redis or provider failures, and the handler itself keeps
// permanently failed jobs from retrying.
func (c *Client) EnqueueNarrationProcess(payload NarrationProcessPayload) error {
	return c.enqueue(TypeNarrationProcess, payload,
		asynq.Queue(QueueNarrations), asynq.MaxRetry(2), asynq.Timeout(60*time.Minute))
}

func (c *Client) enqueue(taskType string, payload interface{}, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	_, err = c.client.Enqueue(task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
