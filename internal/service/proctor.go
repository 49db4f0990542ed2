package service

import (
	"context"
	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/pkg/logger"
	"lingo_edu_backend/pkg/monitoring"
	"sync"
	"time"

	"go.uber.org/zap"
	"k8s.io/utils/clock"
)

// AttemptSubmitter finalizes an attempt. A nil answers map submits the stored drafts.
type AttemptSubmitter interface {
	SubmitAttempt(ctx context.Context, attemptID string, studentID uint, answers map[uint]model.AnswerValue, trigger model.SubmitTrigger) (*AttemptResult, error)
}

// Proctor owns the countdowns of timed attempts, at most one per attempt, and force-submits
// attempts whose time runs out.
type Proctor struct {
	clock         clock.WithTicker
	submitter     AttemptSubmitter
	events        EventPublisher
	lister        OpenTimedAttemptLister
	submitTimeout time.Duration

	mu      sync.Mutex
	running map[string]*Countdown
}

func NewProctor(clk clock.WithTicker, submitter AttemptSubmitter, events EventPublisher, lister OpenTimedAttemptLister, submitTimeout time.Duration) *Proctor {
	return &Proctor{
		clock:         clk,
		submitter:     submitter,
		events:        events,
		lister:        lister,
		submitTimeout: submitTimeout,
		running:       make(map[string]*Countdown),
	}
}

// Begin starts the countdown for attempt unless one is already running. The budget is what is left
// of timeLimitSeconds since the attempt started, so re-arming never extends it.
func (p *Proctor) Begin(attempt *model.Attempt, timeLimitSeconds int) bool {
	if attempt.IsSubmitted() || timeLimitSeconds <= 0 {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.running[attempt.ID]; ok {
		return false
	}

	budget := timeLimitSeconds - int(p.clock.Since(attempt.StartedAt)/time.Second)
	cd := NewCountdown(p.clock)
	p.running[attempt.ID] = cd
	monitoring.ActiveCountdowns.Set(float64(len(p.running)))

	attemptID, studentID := attempt.ID, attempt.StudentID
	cd.Start(budget,
		func(remaining int) {
			p.publish(studentID, AttemptEvent{
				Type:      EventCountdownTick,
				AttemptID: attemptID,
				Data:      CountdownTickData{RemainingSeconds: remaining},
			})
		},
		func() { p.expire(cd, attemptID, studentID) },
	)

	logger.Log.Debug("Countdown started", zap.String("attemptId", attemptID), zap.Int("budgetSeconds", budget))
	return true
}

func (p *Proctor) expire(cd *Countdown, attemptID string, studentID uint) {
	defer p.forget(attemptID, cd)

	p.publish(studentID, AttemptEvent{Type: EventCountdownExpired, AttemptID: attemptID})

	ctx, cancel := context.WithTimeout(context.Background(), p.submitTimeout)
	defer cancel()
	if _, err := p.submitter.SubmitAttempt(ctx, attemptID, studentID, nil, model.TriggerTimer); err != nil {
		logger.Log.Error("Forced submission failed, will retry on next sweep",
			zap.String("attemptId", attemptID), zap.Error(err))
	}
}

func (p *Proctor) forget(attemptID string, cd *Countdown) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running[attemptID] == cd {
		delete(p.running, attemptID)
		monitoring.ActiveCountdowns.Set(float64(len(p.running)))
	}
}

// End cancels the attempt's countdown. It is safe to call when none is running or it already expired.
func (p *Proctor) End(attemptID string) bool {
	p.mu.Lock()
	cd, ok := p.running[attemptID]
	if ok {
		delete(p.running, attemptID)
		monitoring.ActiveCountdowns.Set(float64(len(p.running)))
	}
	p.mu.Unlock()

	return ok && cd.Cancel()
}

// Remaining reports the seconds left on a running countdown.
func (p *Proctor) Remaining(attemptID string) (int, bool) {
	p.mu.Lock()
	cd, ok := p.running[attemptID]
	p.mu.Unlock()
	if !ok {
		return 0, false
	}
	return cd.Remaining(), true
}

// Reconcile arms countdowns for open timed attempts that have none, e.g. after a restart or a failed
// forced submission. It returns how many were armed.
func (p *Proctor) Reconcile(ctx context.Context) (int, error) {
	attempts, err := p.lister.ListOpenTimedAttempts(ctx)
	if err != nil {
		return 0, err
	}

	armed := 0
	for i := range attempts {
		a := &attempts[i]
		if a.Assessment == nil || !a.Assessment.IsTimed() {
			continue
		}
		if p.Begin(a, *a.Assessment.TimeLimitSeconds) {
			armed++
		}
	}
	if armed > 0 {
		logger.Log.Info("Re-armed countdowns", zap.Int("count", armed))
	}
	return armed, nil
}

// Run reconciles immediately and then every interval until ctx is done.
func (p *Proctor) Run(ctx context.Context, interval time.Duration) error {
	defer p.Stop()

	ticker := p.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := p.Reconcile(ctx); err != nil && ctx.Err() == nil {
			logger.Log.Error("Countdown reconciliation failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
		}
	}
}

// Stop cancels every running countdown.
func (p *Proctor) Stop() {
	p.mu.Lock()
	running := p.running
	p.running = make(map[string]*Countdown)
	monitoring.ActiveCountdowns.Set(0)
	p.mu.Unlock()

	for _, cd := range running {
		cd.Cancel()
	}
}

func (p *Proctor) publish(studentID uint, event AttemptEvent) {
	if p.events != nil {
		p.events.Publish(studentID, event)
	}
}
