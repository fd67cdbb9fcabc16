package service

import (
	"context"
	"fmt"
	"time"

	cache "orchid/internal/cache/iface"
	"orchid/internal/domain"
	"orchid/internal/logger"

	"github.com/robfig/cron/v3"
)

const (
	// Claims the minute tick for a single instance. The lock expires on
	// its own so a crashed holder never wedges the schedule.
	luaClaimTick = `
		if redis.call('SET', KEYS[1], ARGV[1], 'NX', 'PX', ARGV[2]) then
			return 1
		end
		return 0
	`

	tickLockTTLMs = 55_000
)

// ScheduledTriggerService fires a scheduled trigger event once per
// minute. Rules with the scheduled trigger type use their conditions to
// decide whether the current tick applies to them.
type ScheduledTriggerService interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type scheduledTriggerService struct {
	trigger TriggerService
	cache   cache.Cache
	logger  logger.Logger
	cron    *cron.Cron
	nodeID  string
}

func NewScheduledTriggerService(
	trigger TriggerService,
	cache cache.Cache,
	nodeID string,
	log logger.Logger,
) ScheduledTriggerService {
	return &scheduledTriggerService{
		trigger: trigger,
		cache:   cache,
		logger:  log.With(logger.String("component", "scheduled_trigger")),
		cron:    cron.New(cron.WithSeconds()),
		nodeID:  nodeID,
	}
}

// Start registers the minute tick
func (s *scheduledTriggerService) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc("0 * * * * *", func() {
		s.tick(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to add tick cron: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduled trigger service started",
		logger.String("node_id", s.nodeID))
	return nil
}

// Stop halts the cron and waits for a running tick to finish
func (s *scheduledTriggerService) Stop(ctx context.Context) error {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	s.logger.Info("scheduled trigger service stopped")
	return nil
}

// tick fires one scheduled event if this instance wins the minute lock
func (s *scheduledTriggerService) tick(ctx context.Context) {
	now := time.Now()
	lockKey := fmt.Sprintf("scheduled:tick:%s", now.Format("200601021504"))

	claimed, err := s.cache.Eval(ctx, luaClaimTick, []string{lockKey}, s.nodeID, tickLockTTLMs)
	if err != nil {
		s.logger.Error("failed to claim tick lock",
			logger.String("lock_key", lockKey),
			logger.Error(err))
		return
	}
	if claimedInt, ok := claimed.(int64); !ok || claimedInt != 1 {
		// Another instance owns this minute
		return
	}

	event := domain.NewTriggerContext(domain.TriggerTypeScheduled, "", "", map[string]interface{}{
		"tick_at": now.Format(time.RFC3339),
		"minute":  now.Minute(),
		"hour":    now.Hour(),
		"weekday": now.Weekday().String(),
	})

	summary, err := s.trigger.Trigger(ctx, event)
	if err != nil {
		s.logger.Error("scheduled trigger failed",
			logger.Error(err))
		return
	}

	if summary.Triggered > 0 {
		s.logger.Info("scheduled tick processed",
			logger.Int("triggered", summary.Triggered),
			logger.Int("executed", summary.Executed))
	}
}
