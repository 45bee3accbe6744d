package application

import (
	"log/slog"
	"time"

	"github.com/carelink/mission-service/internal/domain"
	"github.com/carelink/mission-service/internal/ports"
)

type Service struct {
	cfg         Config
	logger      *slog.Logger
	store       ports.Store
	requests    ports.RequestRepository
	missions    ports.MissionRepository
	caregivers  ports.CaregiverRepository
	suggestions ports.SuggestionRepository
	jobRuns     ports.JobRunRepository
	outbox      ports.OutboxRepository
	eventDedup  ports.EventDedupRepository
	idempotency ports.IdempotencyRepository
	cache       ports.Cache
	locker      ports.Locker
	reports     ports.ReportGenerator
	tokens      ports.TokenVerifier
	distance    domain.DistanceStrategy
	nowFn       func() time.Time
}

type Dependencies struct {
	Config      Config
	Logger      *slog.Logger
	Store       ports.Store
	Requests    ports.RequestRepository
	Missions    ports.MissionRepository
	Caregivers  ports.CaregiverRepository
	Suggestions ports.SuggestionRepository
	JobRuns     ports.JobRunRepository
	Outbox      ports.OutboxRepository
	EventDedup  ports.EventDedupRepository
	Idempotency ports.IdempotencyRepository
	Cache       ports.Cache
	Locker      ports.Locker
	Reports     ports.ReportGenerator
	Tokens      ports.TokenVerifier
	Distance    domain.DistanceStrategy
	Now         func() time.Time
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "care-mission-service"
	}
	if cfg.CheckInTolerance <= 0 {
		cfg.CheckInTolerance = domain.DefaultCheckInTolerance
	}
	if cfg.GeofenceMeters <= 0 {
		cfg.GeofenceMeters = domain.DefaultGeofenceMeters
	}
	if cfg.MissionGracePeriod <= 0 {
		cfg.MissionGracePeriod = domain.DefaultMissionGracePeriod
	}
	if cfg.PriceTolerance <= 0 {
		cfg.PriceTolerance = 20
	}
	if cfg.DefaultMatchLimit <= 0 {
		cfg.DefaultMatchLimit = 5
	}
	if cfg.MaxMatchLimit <= 0 {
		cfg.MaxMatchLimit = 50
	}
	if cfg.MatchCacheTTL <= 0 {
		cfg.MatchCacheTTL = 2 * time.Minute
	}
	if cfg.PlaceholderDistanceKm <= 0 {
		cfg.PlaceholderDistanceKm = 15
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}
	if cfg.SweepLockTTL <= 0 {
		cfg.SweepLockTTL = 2 * time.Minute
	}
	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = 200
	}
	if cfg.DefaultAlertLimit <= 0 {
		cfg.DefaultAlertLimit = 20
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 7 * 24 * time.Hour
	}
	if cfg.EventDedupTTL <= 0 {
		cfg.EventDedupTTL = 7 * 24 * time.Hour
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	distance := deps.Distance
	if distance == nil {
		distance = domain.CoarseCityDistance{PlaceholderKm: cfg.PlaceholderDistanceKm}
	}
	nowFn := deps.Now
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}

	return &Service{
		cfg:         cfg,
		logger:      logger,
		store:       deps.Store,
		requests:    deps.Requests,
		missions:    deps.Missions,
		caregivers:  deps.Caregivers,
		suggestions: deps.Suggestions,
		jobRuns:     deps.JobRuns,
		outbox:      deps.Outbox,
		eventDedup:  deps.EventDedup,
		idempotency: deps.Idempotency,
		cache:       deps.Cache,
		locker:      deps.Locker,
		reports:     deps.Reports,
		tokens:      deps.Tokens,
		distance:    distance,
		nowFn:       nowFn,
	}
}
