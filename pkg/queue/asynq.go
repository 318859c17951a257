package queue

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/hibiken/asynq"

	"github.com/charonlabs/charon/pkg/structs"
)

const (
	asynqWorkQueue  = "charon:work"
	asynqTaskPrefix = "query:"
)

// Asynq is a Queue backed by asynq (redis). Submissions survive process
// restarts & can be worked by any number of worker processes.
type Asynq struct {
	opts *Options

	cli *asynq.Client

	// if Register is called we're intended to start a server
	lock sync.Mutex
	mux  *asynq.ServeMux
	srv  *asynq.Server
}

// NewAsynq returns a new asynq backed Queue.
func NewAsynq(opts *Options) (*Asynq, error) {
	redisOpt := asynq.RedisClientOpt{Addr: opts.URL, TLSConfig: opts.TLSConfig}
	return &Asynq{
		opts: opts,
		cli:  asynq.NewClient(redisOpt),
	}, nil
}

// Close shuts down the queue.
func (a *Asynq) Close() error {
	if a.srv != nil {
		a.srv.Stop()
		a.srv.Shutdown()
	}
	return a.cli.Close()
}

// Register a handler for the given job kind.
func (a *Asynq) Register(kind structs.Kind, h Handler) error {
	if a.mux == nil {
		a.buildServer()
	}
	a.mux.HandleFunc(taskType(kind), func(ctx context.Context, t *asynq.Task) error {
		return h(ctx, string(t.Payload()))
	})
	return nil
}

// Enqueue a job for execution. The payload is just the job id; workers
// re-read the job from the store.
func (a *Asynq) Enqueue(ctx context.Context, j *structs.Job) (string, error) {
	task := asynq.NewTask(taskType(j.Kind), []byte(j.ID))
	// a submission is a single attempt; failures are terminal for the job
	info, err := a.cli.EnqueueContext(ctx, task, asynq.Queue(asynqWorkQueue), asynq.MaxRetry(0))
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// Run the queue & process jobs. Blocks until Close is called.
func (a *Asynq) Run() error {
	if a.mux == nil {
		return fmt.Errorf("no handlers registered")
	}
	return a.srv.Run(a.mux)
}

func (a *Asynq) buildServer() {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.mux != nil {
		// someone locked and set this first
		return
	}
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: a.opts.URL, TLSConfig: a.opts.TLSConfig},
		asynq.Config{
			Queues: map[string]int{asynqWorkQueue: 1},
		},
	)
	mux := asynq.NewServeMux()
	a.srv = srv
	a.mux = mux
}

func taskType(kind structs.Kind) string {
	return asynqTaskPrefix + strings.ToLower(string(kind))
}
