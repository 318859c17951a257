package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "charon:jobs:"

// Redis publishes events over redis pub/sub, one channel per job id, so
// subscribers interested in a single job don't wade through everyone
// else's traffic.
type Redis struct {
	client *redis.Client
}

// NewRedis returns a redis backed Publisher for the given URL.
func NewRedis(url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &Redis{client: redis.NewClient(opts)}, nil
}

// Close shuts down the redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Publish pushes the event onto the job's channel.
func (r *Redis) Publish(ctx context.Context, ev *Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, channelPrefix+ev.JobID, data).Err()
}

// Subscribe returns a channel of events for the given job id & a cancel
// func. The channel closes when ctx ends or cancel is called.
func (r *Redis) Subscribe(ctx context.Context, jobID string) (<-chan *Event, func()) {
	sub := r.client.Subscribe(ctx, channelPrefix+jobID)
	out := make(chan *Event)

	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			ev := &Event{}
			err := json.Unmarshal([]byte(msg.Payload), ev)
			if err != nil {
				log.Println("[Events] dropping undecodable event:", err)
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, func() { sub.Close() }
}
