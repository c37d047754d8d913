package command

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sandevgo/polychat/internal/providers/llm"
	"github.com/sandevgo/polychat/pkg/log"
	"github.com/sandevgo/polychat/pkg/retry"
)

// PullTask is one background model acquisition with an observable
// completion flag. Completion is noticed via a model-list refresh, not a
// callback into the turn that started it.
type PullTask struct {
	Model string

	done atomic.Bool
	err  atomic.Value
}

func (t *PullTask) Done() bool {
	return t.done.Load()
}

func (t *PullTask) Err() error {
	if err, ok := t.err.Load().(error); ok {
		return err
	}
	return nil
}

// PullService owns background pull submission: one task per model name,
// bounded retries with backoff.
type PullService struct {
	registry *llm.Registry
	retrier  *retry.Retrier

	mu    sync.Mutex
	tasks map[string]*PullTask
}

func NewPullService(registry *llm.Registry) *PullService {
	return &PullService{
		registry: registry,
		retrier:  retry.NewDefaultRetrier(),
		tasks:    make(map[string]*PullTask),
	}
}

// Start launches a pull in the background and returns immediately. A
// second request for a model still being pulled returns the running task.
func (s *PullService) Start(ctx context.Context, model string) (*PullTask, error) {
	puller, err := s.registry.Puller()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if task, ok := s.tasks[model]; ok && !task.Done() {
		return task, nil
	}

	task := &PullTask{Model: model}
	s.tasks[model] = task

	// The pull outlives the turn that started it.
	bgCtx := context.WithoutCancel(ctx)
	go func() {
		logger := log.FromCtx(bgCtx)
		err := s.retrier.Do(bgCtx, func() error {
			return puller.Pull(bgCtx, model)
		})
		if err != nil {
			logger.Error().Err(err).Str("model", model).Msg("model pull failed")
			task.err.Store(err)
		} else {
			logger.Info().Str("model", model).Msg("model pull finished")
			s.registry.InvalidateModels()
		}
		task.done.Store(true)
	}()

	return task, nil
}

func (s *PullService) Tasks() []*PullTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]*PullTask, 0, len(s.tasks))
	for _, task := range s.tasks {
		res = append(res, task)
	}
	return res
}
