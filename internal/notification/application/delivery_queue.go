package application

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sourcegraph/conc"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/metrics"
)

// QueueConfig 投递队列配置
type QueueConfig struct {
	Workers   int
	QueueSize int
	// 单个任务最多尝试次数（含首次）
	MaxTries      int
	RetryInterval time.Duration
}

type task struct {
	ctx  context.Context
	kind string
	run  func(ctx context.Context) error
}

// DeliveryQueue 异步投递队列，邮件与告警在此排队，由固定数量的 worker 带退避重试地执行。
// 提交方不等待结果；队列满时任务被丢弃并记录日志。
type DeliveryQueue struct {
	tasks     chan task
	cfg       QueueConfig
	collector metrics.Collector

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      conc.WaitGroup
}

// NewDeliveryQueue 创建投递队列，需调用 Start 启动 worker
func NewDeliveryQueue(cfg QueueConfig, collector metrics.Collector) *DeliveryQueue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.MaxTries <= 0 {
		cfg.MaxTries = 1
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 500 * time.Millisecond
	}
	return &DeliveryQueue{
		tasks:     make(chan task, cfg.QueueSize),
		cfg:       cfg,
		collector: collector,
	}
}

// Start 启动 worker，重复调用无效
func (q *DeliveryQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.started = true
	for range q.cfg.Workers {
		q.wg.Go(q.work)
	}
}

// Submit 提交任务，返回是否入队成功
func (q *DeliveryQueue) Submit(ctx context.Context, kind string, run func(ctx context.Context) error) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}

	// 请求结束后任务仍需执行，保留 trace 信息但脱离取消
	t := task{ctx: context.WithoutCancel(ctx), kind: kind, run: run}
	select {
	case q.tasks <- t:
		return true
	default:
		q.collector.RecordEmail("dropped")
		logger.Warn(ctx, "delivery queue full, task dropped", "kind", kind, "capacity", q.cfg.QueueSize)
		return false
	}
}

// Close 停止接收新任务，等待已入队任务执行完毕
func (q *DeliveryQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.tasks)
	started := q.started
	q.mu.Unlock()

	if !started {
		// 未启动时就地排空
		for t := range q.tasks {
			q.execute(t)
		}
		return
	}
	q.wg.Wait()
}

func (q *DeliveryQueue) work() {
	for t := range q.tasks {
		q.execute(t)
	}
}

func (q *DeliveryQueue) execute(t task) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = q.cfg.RetryInterval

	attempt := 0
	_, err := backoff.Retry(t.ctx, func() (struct{}, error) {
		attempt++
		err := t.run(t.ctx)
		if err != nil {
			logger.Warn(t.ctx, "delivery attempt failed", "kind", t.kind, "attempt", attempt, "error", err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(q.cfg.MaxTries)))

	if err != nil {
		q.collector.RecordEmail("failed")
		logger.Error(t.ctx, "delivery failed", "kind", t.kind, "attempts", attempt, "error", err)
		return
	}
	q.collector.RecordEmail("sent")
}
