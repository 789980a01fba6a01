package delivery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"silentping/internal/transport"
	"silentping/pkg/logx"
	"silentping/pkg/mention"
)

type Service struct {
	mu sync.Mutex

	cfg      Config
	sender   transport.Sender
	recorder Recorder
	log      logx.Logger

	limiter *rate.Limiter
	queue   chan job
	stopCh  chan struct{}

	statusMu  sync.RWMutex
	status    map[string]*Report
	statusMax int
	statusTTL time.Duration
}

func New(cfg Config, sender transport.Sender, recorder Recorder, log logx.Logger) *Service {
	s := &Service{
		cfg:      cfg,
		sender:   sender,
		recorder: recorder,
		log:      log,
		status:   map[string]*Report{},
	}
	s.applyLocked(cfg)
	return s
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled
}

func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(cfg)
}

func (s *Service) applyLocked(cfg Config) {
	s.cfg = cfg
	if cfg.SendDelay > 0 {
		s.limiter = rate.NewLimiter(rate.Every(cfg.SendDelay), 1)
	} else {
		s.limiter = nil
	}
	s.statusMax = cfg.StatusMax
	s.statusTTL = cfg.StatusTTL
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh != nil {
		return
	}
	s.queue = make(chan job, 16)
	s.stopCh = make(chan struct{})
	// One worker only: requests within and across jobs stay strictly ordered.
	go s.worker(ctx)
	s.log.Info("delivery started", logx.Duration("send_delay", s.cfg.SendDelay))
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	if s.stopCh == nil {
		s.mu.Unlock()
		return
	}
	close(s.stopCh)
	s.stopCh = nil
	q := s.queue
	s.queue = nil
	s.mu.Unlock()

	// Fail whatever never reached the worker so no report is left hanging.
	for {
		select {
		case j := <-q:
			s.log.Warn("delivery stopped with job pending", logx.String("job", j.id), logx.String("name", j.name))
			s.failAll(j.id)
		default:
			s.log.Info("delivery stopped")
			return
		}
	}
}

// Submit queues a job and returns its ID. If the queue is full or the
// service is not running, the job is marked failed immediately.
func (s *Service) Submit(name string, payloads []mention.Payload) string {
	now := time.Now()
	id := fmt.Sprintf("dl:%d", now.UnixNano())
	s.pruneStatus(now)
	st := &Report{ID: id, Name: name, Total: len(payloads), CreatedAt: now}
	s.statusMu.Lock()
	s.status[id] = st
	s.statusMu.Unlock()

	s.mu.Lock()
	q := s.queue
	s.mu.Unlock()
	if q == nil {
		s.log.Warn("delivery not running; dropping job", logx.String("job", id), logx.String("name", name))
		s.failAll(id)
		return id
	}
	select {
	case q <- job{id: id, name: name, payloads: payloads}:
		s.log.Debug("delivery job enqueued",
			logx.String("job", id), logx.String("name", name),
			logx.Int("payloads", len(payloads)), logx.Int("queue_len", len(q)))
	default:
		s.log.Warn("delivery queue full; dropping job", logx.String("job", id), logx.String("name", name))
		s.failAll(id)
	}
	return id
}

// Deliver runs a job synchronously and returns its report. Used by the
// one-shot CLI path; the daemon path goes through Submit.
func (s *Service) Deliver(ctx context.Context, name string, payloads []mention.Payload) Report {
	now := time.Now()
	id := fmt.Sprintf("dl:%d", now.UnixNano())
	st := &Report{ID: id, Name: name, Total: len(payloads), CreatedAt: now}
	s.statusMu.Lock()
	s.status[id] = st
	s.statusMu.Unlock()

	s.execJob(ctx, job{id: id, name: name, payloads: payloads})
	rep, _ := s.Status(id)
	return rep
}

func (s *Service) Status(id string) (Report, bool) {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	st, ok := s.status[id]
	if !ok || st == nil {
		return Report{}, false
	}
	cp := *st
	if len(st.Errors) > 0 {
		cp.Errors = append([]IndexedError(nil), st.Errors...)
	}
	return cp, true
}

func (s *Service) worker(ctx context.Context) {
	for {
		s.mu.Lock()
		stop := s.stopCh
		q := s.queue
		s.mu.Unlock()
		if stop == nil || q == nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case j := <-q:
			s.execJob(ctx, j)
		}
	}
}

func (s *Service) execJob(ctx context.Context, j job) {
	s.setRunning(j.id)
	defer s.finish(j.id)

	for i, p := range j.payloads {
		err := s.sendOne(ctx, p)
		s.record(ctx, j, i, p, err)
		if err != nil {
			s.markFail(j.id, i, err)
			continue
		}
		s.markSent(j.id)
	}
}

// sendOne waits out the pacing interval, then issues a single request.
// No retry: failures are the caller's signal to adjust, not ours to mask.
func (s *Service) sendOne(ctx context.Context, p mention.Payload) error {
	s.mu.Lock()
	lim := s.limiter
	s.mu.Unlock()
	if lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return err
		}
	}
	_, err := s.sender.SendPayload(ctx, p)
	return err
}

func (s *Service) record(ctx context.Context, j job, idx int, p mention.Payload, sendErr error) {
	if s.recorder == nil {
		return
	}
	rec := Record{
		At:       time.Now(),
		Job:      j.id,
		Name:     j.name,
		Index:    idx,
		ChatID:   p.Chat.ID,
		Chat:     p.Chat.Username,
		Mentions: len(p.Mentions),
		TextLen:  mention.TextLen(p.Text),
		OK:       sendErr == nil,
	}
	if sendErr != nil {
		rec.Err = sendErr.Error()
	}
	if err := s.recorder.RecordDelivery(ctx, rec); err != nil {
		s.log.Warn("delivery log append failed", logx.String("job", j.id), logx.Err(err))
	}
}

func (s *Service) setRunning(id string) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if st := s.status[id]; st != nil {
		st.StartedAt = time.Now()
		st.Running = true
	}
}

func (s *Service) markSent(id string) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if st := s.status[id]; st != nil {
		st.Sent++
	}
}

func (s *Service) markFail(id string, idx int, err error) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if st := s.status[id]; st != nil {
		st.Errors = append(st.Errors, IndexedError{Index: idx, Err: err.Error()})
	}
}

func (s *Service) failAll(id string) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if st := s.status[id]; st != nil {
		st.DoneAt = time.Now()
		for i := 0; i < st.Total; i++ {
			st.Errors = append(st.Errors, IndexedError{Index: i, Err: "delivery unavailable"})
		}
	}
}

func (s *Service) finish(id string) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if st := s.status[id]; st != nil {
		st.DoneAt = time.Now()
		st.Running = false
		st.OK = len(st.Errors) == 0 && st.Sent == st.Total
	}
}
