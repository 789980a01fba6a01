package blast

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"silentping/pkg/logx"
	"silentping/pkg/mention"
)

// Blast is one named broadcast definition, already validated and converted
// out of its config representation.
type Blast struct {
	Name       string
	Cron       string // empty = on-demand only
	Chat       mention.Chat
	Recipients []int64
	Template   mention.Template
	Limits     mention.Limits
}

// Submitter enqueues a payload sequence for delivery. Implemented by the
// delivery service.
type Submitter interface {
	Submit(name string, payloads []mention.Payload) string
}

// specParser allows both 5-field and 6-field (with seconds) cron specs,
// plus descriptors like @daily.
var specParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSpec validates a cron spec. Used by config validation so a bad spec
// is rejected before it reaches Apply.
func ParseSpec(spec string) (cron.Schedule, error) {
	return specParser.Parse(spec)
}

type Service struct {
	mu sync.Mutex

	log    logx.Logger
	submit Submitter

	runner  *cron.Cron
	entries map[string]cron.EntryID
	blasts  map[string]Blast
	started bool
}

func New(submit Submitter, log logx.Logger) *Service {
	return &Service{
		log:     log,
		submit:  submit,
		runner:  cron.New(cron.WithParser(specParser)),
		entries: map[string]cron.EntryID{},
		blasts:  map[string]Blast{},
	}
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.runner.Start()
	s.log.Info("blast scheduler started", logx.Int("scheduled", len(s.entries)))
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false
	stopCtx := s.runner.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.log.Info("blast scheduler stopped")
}

// Apply swaps in a new blast set. Existing cron entries are removed and
// re-registered; on-demand blasts are kept addressable by name.
func (s *Service) Apply(ctx context.Context, blasts []Blast) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, id := range s.entries {
		s.runner.Remove(id)
		delete(s.entries, name)
	}
	s.blasts = make(map[string]Blast, len(blasts))

	for _, b := range blasts {
		s.blasts[b.Name] = b
		if b.Cron == "" {
			continue
		}
		b := b
		id, err := s.runner.AddFunc(b.Cron, func() {
			if _, err := s.Run(ctx, b.Name); err != nil {
				s.log.Error("scheduled blast failed", logx.String("blast", b.Name), logx.Err(err))
			}
		})
		if err != nil {
			return fmt.Errorf("blast %q: %w", b.Name, err)
		}
		s.entries[b.Name] = id
		s.log.Debug("blast scheduled", logx.String("blast", b.Name), logx.String("cron", b.Cron))
	}
	return nil
}

// Run builds the payload plan for the named blast and submits it. It
// returns the delivery job ID. Building is all-or-nothing: a template or
// limit problem produces an error and nothing is sent.
func (s *Service) Run(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	b, ok := s.blasts[name]
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("unknown blast %q", name)
	}

	payloads, err := Build(b)
	if err != nil {
		return "", err
	}
	if len(payloads) == 0 {
		s.log.Warn("blast has no recipients; nothing to send", logx.String("blast", name))
		return "", nil
	}

	id := s.submit.Submit(name, payloads)
	s.log.Info("blast submitted",
		logx.String("blast", name), logx.String("job", id),
		logx.Int("payloads", len(payloads)), logx.Int("recipients", len(b.Recipients)))
	return id, nil
}

// Build produces the payload plan for a blast without sending it.
func Build(b Blast) ([]mention.Payload, error) {
	payloads, err := mention.BuildPayloads(b.Chat, b.Recipients, b.Template, b.Limits)
	if err != nil {
		return nil, fmt.Errorf("blast %q: %w", b.Name, err)
	}
	return payloads, nil
}
