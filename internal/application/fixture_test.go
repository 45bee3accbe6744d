package application_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/carelink/mission-service/internal/application"
	"github.com/carelink/mission-service/internal/domain"
	"github.com/carelink/mission-service/internal/ports"
	"github.com/google/uuid"
)

type memoryState struct {
	requests    map[uuid.UUID]domain.Request
	missions    map[uuid.UUID]domain.Mission
	caregivers  map[uuid.UUID]domain.Caregiver
	suggestions map[uuid.UUID]domain.Suggestion
	outbox      []ports.OutboxEvent
}

func (s memoryState) clone() memoryState {
	out := memoryState{
		requests:    make(map[uuid.UUID]domain.Request, len(s.requests)),
		missions:    make(map[uuid.UUID]domain.Mission, len(s.missions)),
		caregivers:  make(map[uuid.UUID]domain.Caregiver, len(s.caregivers)),
		suggestions: make(map[uuid.UUID]domain.Suggestion, len(s.suggestions)),
		outbox:      append([]ports.OutboxEvent(nil), s.outbox...),
	}
	for k, v := range s.requests {
		out.requests[k] = v
	}
	for k, v := range s.missions {
		out.missions[k] = v
	}
	for k, v := range s.caregivers {
		out.caregivers[k] = v
	}
	for k, v := range s.suggestions {
		out.suggestions[k] = v
	}
	return out
}

type memoryDB struct {
	txMu sync.Mutex
	mu   sync.Mutex
	memoryState
	suggestionSaves int
	dedup           map[string]time.Time
	idempotency     map[string]ports.IdempotencyRecord
	jobRuns         map[string]time.Time
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		memoryState: memoryState{
			requests:    map[uuid.UUID]domain.Request{},
			missions:    map[uuid.UUID]domain.Mission{},
			caregivers:  map[uuid.UUID]domain.Caregiver{},
			suggestions: map[uuid.UUID]domain.Suggestion{},
		},
		dedup:       map[string]time.Time{},
		idempotency: map[string]ports.IdempotencyRecord{},
		jobRuns:     map[string]time.Time{},
	}
}

func (db *memoryDB) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.TxRepositories) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()
	db.mu.Lock()
	snapshot := db.memoryState.clone()
	db.mu.Unlock()
	if err := fn(ctx, db.tx()); err != nil {
		db.mu.Lock()
		db.memoryState = snapshot
		db.mu.Unlock()
		return err
	}
	return nil
}

func (db *memoryDB) tx() ports.TxRepositories {
	return ports.TxRepositories{
		Requests:    requestRepo{db},
		Missions:    missionRepo{db},
		Caregivers:  caregiverRepo{db},
		Suggestions: suggestionRepo{db},
		Outbox:      outboxRepo{db},
	}
}

func (db *memoryDB) eventsOfType(eventType string) []ports.OutboxEvent {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := []ports.OutboxEvent{}
	for _, evt := range db.outbox {
		if evt.EventType == eventType {
			out = append(out, evt)
		}
	}
	return out
}

type requestRepo struct{ db *memoryDB }

func (r requestRepo) Create(_ context.Context, req domain.Request) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.requests[req.RequestID]; ok {
		return domain.ErrConflict
	}
	if req.Version == 0 {
		req.Version = 1
	}
	r.db.requests[req.RequestID] = req
	return nil
}

func (r requestRepo) Get(_ context.Context, id uuid.UUID) (domain.Request, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	req, ok := r.db.requests[id]
	if !ok {
		return domain.Request{}, domain.ErrNotFound
	}
	return req, nil
}

func (r requestRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Request, error) {
	return r.Get(ctx, id)
}

func (r requestRepo) Update(_ context.Context, req domain.Request) (domain.Request, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	current, ok := r.db.requests[req.RequestID]
	if !ok {
		return domain.Request{}, domain.ErrNotFound
	}
	if current.Version != req.Version {
		return domain.Request{}, domain.ErrConflict
	}
	req.Version++
	r.db.requests[req.RequestID] = req
	return req, nil
}

func (r requestRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.requests, id)
	return nil
}

func (r requestRepo) ListExpirable(_ context.Context, now time.Time, limit int) ([]domain.Request, error) {
	return r.filter(limit, func(req domain.Request) bool {
		return !req.Status.IsTerminal() && req.Status != domain.RequestStatusAccepted && req.DesiredStart.Before(now)
	}), nil
}

func (r requestRepo) ListOpen(_ context.Context, limit int) ([]domain.Request, error) {
	return r.filter(limit, func(req domain.Request) bool { return !req.Status.IsTerminal() }), nil
}

func (r requestRepo) filter(limit int, keep func(domain.Request) bool) []domain.Request {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []domain.Request{}
	for _, req := range r.db.requests {
		if keep(req) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DesiredStart.Before(out[j].DesiredStart) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type missionRepo struct{ db *memoryDB }

func (r missionRepo) Create(_ context.Context, m domain.Mission) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if m.Version == 0 {
		m.Version = 1
	}
	r.db.missions[m.MissionID] = m
	return nil
}

func (r missionRepo) Get(_ context.Context, id uuid.UUID) (domain.Mission, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m, ok := r.db.missions[id]
	if !ok {
		return domain.Mission{}, domain.ErrNotFound
	}
	return m, nil
}

func (r missionRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (domain.Mission, error) {
	return r.Get(ctx, id)
}

func (r missionRepo) Update(_ context.Context, m domain.Mission) (domain.Mission, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	current, ok := r.db.missions[m.MissionID]
	if !ok {
		return domain.Mission{}, domain.ErrNotFound
	}
	if current.Version != m.Version {
		return domain.Mission{}, domain.ErrConflict
	}
	m.Version++
	r.db.missions[m.MissionID] = m
	return m, nil
}

func (r missionRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.missions, id)
	return nil
}

func (r missionRepo) AttachReport(_ context.Context, id uuid.UUID, path string, _ time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m, ok := r.db.missions[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.PDFFilePath = path
	r.db.missions[id] = m
	return nil
}

func (r missionRepo) ListByRequest(_ context.Context, requestID uuid.UUID) ([]domain.Mission, error) {
	return r.filter(0, func(m domain.Mission) bool { return m.RequestID == requestID }), nil
}

func (r missionRepo) CountByRequest(ctx context.Context, requestID uuid.UUID) (int64, error) {
	list, _ := r.ListByRequest(ctx, requestID)
	return int64(len(list)), nil
}

func (r missionRepo) ListOverlapping(_ context.Context, caregiverID uuid.UUID, start, end time.Time) ([]domain.Mission, error) {
	return r.filter(0, func(m domain.Mission) bool {
		if !m.IsActive() || !m.AssignedTo(caregiverID) {
			return false
		}
		s, e, ok := m.Window()
		return ok && domain.IntervalsOverlap(s, e, start, end)
	}), nil
}

func (r missionRepo) BusyCaregiverIDs(_ context.Context, start, end time.Time) ([]uuid.UUID, error) {
	busy := r.filter(0, func(m domain.Mission) bool {
		s, e, ok := m.Window()
		return m.IsActive() && m.CaregiverID != nil && ok && domain.IntervalsOverlap(s, e, start, end)
	})
	out := []uuid.UUID{}
	for _, m := range busy {
		out = append(out, *m.CaregiverID)
	}
	return out, nil
}

func (r missionRepo) ListUnarchivedCheckedOut(_ context.Context, limit int) ([]domain.Mission, error) {
	return r.filter(limit, func(m domain.Mission) bool { return !m.IsArchived() && m.CheckOutAt != nil }), nil
}

func (r missionRepo) ListCheckedInStartedBefore(_ context.Context, before time.Time, limit int) ([]domain.Mission, error) {
	return r.filter(limit, func(m domain.Mission) bool {
		return !m.IsArchived() && m.CheckInAt != nil && m.CheckOutAt == nil && m.StartsAt != nil && m.StartsAt.Before(before)
	}), nil
}

func (r missionRepo) ListAcceptedWithoutCheckIn(_ context.Context, startedBefore time.Time, limit int) ([]domain.Mission, error) {
	return r.filter(limit, func(m domain.Mission) bool {
		return !m.IsArchived() && m.Status == domain.MissionStatusAccepted && m.CheckInAt == nil && m.StartsAt != nil && m.StartsAt.Before(startedBefore)
	}), nil
}

func (r missionRepo) TrackRecords(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.TrackRecord, error) {
	wanted := map[uuid.UUID]struct{}{}
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	out := map[uuid.UUID]domain.TrackRecord{}
	for _, m := range r.filter(0, func(m domain.Mission) bool { return m.CaregiverID != nil }) {
		if _, ok := wanted[*m.CaregiverID]; !ok {
			continue
		}
		t := out[*m.CaregiverID]
		t.Total++
		if m.FinalStatus != nil {
			switch *m.FinalStatus {
			case domain.FinalStatusCompleted:
				t.Completed++
			case domain.FinalStatusCancelled, domain.FinalStatusExpired:
				t.Failed++
			}
		}
		if m.StatusVerification != nil && *m.StatusVerification == domain.VerificationSuspect {
			t.Suspicious++
		}
		out[*m.CaregiverID] = t
	}
	return out, nil
}

func (r missionRepo) filter(limit int, keep func(domain.Mission) bool) []domain.Mission {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []domain.Mission{}
	for _, m := range r.db.missions {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type caregiverRepo struct{ db *memoryDB }

func (r caregiverRepo) Get(_ context.Context, id uuid.UUID) (domain.Caregiver, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.caregivers[id]
	if !ok {
		return domain.Caregiver{}, domain.ErrNotFound
	}
	return c, nil
}

func (r caregiverRepo) GetByUserID(_ context.Context, userID uuid.UUID) (domain.Caregiver, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.caregivers {
		if c.UserID == userID {
			return c, nil
		}
	}
	return domain.Caregiver{}, domain.ErrNotFound
}

func (r caregiverRepo) List(_ context.Context, filter ports.CaregiverFilter) ([]domain.Caregiver, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []domain.Caregiver{}
	for _, c := range r.db.caregivers {
		if filter.ValidatedOnly && !c.Validated {
			continue
		}
		if filter.AvailableOnly && !c.Available {
			continue
		}
		if len(filter.Sexes) > 0 {
			match := false
			for _, s := range filter.Sexes {
				match = match || c.Sex == s
			}
			if !match {
				continue
			}
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Available != out[j].Available {
			return out[i].Available
		}
		if out[i].ExperienceLevel != out[j].ExperienceLevel {
			return out[i].ExperienceLevel > out[j].ExperienceLevel
		}
		return out[i].CaregiverID.String() < out[j].CaregiverID.String()
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r caregiverRepo) Upsert(_ context.Context, c domain.Caregiver) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.caregivers[c.CaregiverID] = c
	return nil
}

type suggestionRepo struct{ db *memoryDB }

func (r suggestionRepo) Get(_ context.Context, requestID uuid.UUID) (domain.Suggestion, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.suggestions[requestID]
	return s, ok, nil
}

func (r suggestionRepo) Save(_ context.Context, s domain.Suggestion) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.suggestions[s.RequestID] = s
	r.db.suggestionSaves++
	return nil
}

func (r suggestionRepo) Delete(_ context.Context, requestID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.suggestions, requestID)
	return nil
}

type outboxRepo struct{ db *memoryDB }

func (r outboxRepo) Enqueue(_ context.Context, evt ports.OutboxEvent) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.outbox = append(r.db.outbox, evt)
	return nil
}

func (r outboxRepo) FetchUnpublished(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []ports.OutboxRecord{}
	for _, evt := range r.db.outbox {
		out = append(out, ports.OutboxRecord{OutboxID: evt.EventID, EventType: evt.EventType, RequestID: evt.RequestID, MissionID: evt.MissionID, PartitionKey: evt.PartitionKey, Payload: evt.Payload, FirstSeenAt: evt.OccurredAt})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r outboxRepo) MarkPublished(context.Context, uuid.UUID, time.Time) error      { return nil }
func (r outboxRepo) MarkFailed(context.Context, uuid.UUID, string, time.Time) error { return nil }

type dedupRepo struct{ db *memoryDB }

func (r dedupRepo) IsDuplicate(_ context.Context, eventID string, now time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	exp, ok := r.db.dedup[eventID]
	return ok && exp.After(now), nil
}

func (r dedupRepo) MarkProcessed(_ context.Context, eventID, _ string, _ uuid.UUID, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.dedup[eventID] = expiresAt
	return nil
}

type idempotencyRepo struct{ db *memoryDB }

func (r idempotencyRepo) Get(_ context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rec, ok := r.db.idempotency[key]
	if !ok || !rec.ExpiresAt.After(now) {
		return nil, nil
	}
	return &rec, nil
}

func (r idempotencyRepo) Reserve(_ context.Context, key, hash string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.idempotency[key]; ok {
		return errors.New("already reserved")
	}
	r.db.idempotency[key] = ports.IdempotencyRecord{Key: key, RequestHash: hash, Status: "reserved", ExpiresAt: expiresAt}
	return nil
}

func (r idempotencyRepo) Complete(_ context.Context, key string, code int, body []byte, _ time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rec := r.db.idempotency[key]
	rec.Status = "completed"
	rec.ResponseCode = code
	rec.ResponseBody = body
	r.db.idempotency[key] = rec
	return nil
}

func (r idempotencyRepo) Release(_ context.Context, key string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if rec, ok := r.db.idempotency[key]; ok && rec.Status == "reserved" {
		delete(r.db.idempotency, key)
	}
	return nil
}

type jobRunRepo struct{ db *memoryDB }

func (r jobRunRepo) LastRun(_ context.Context, job string) (time.Time, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	at, ok := r.db.jobRuns[job]
	return at, ok, nil
}

func (r jobRunRepo) RecordRun(_ context.Context, job string, at time.Time, _ string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.jobRuns[job] = at
	return nil
}

type memoryCache struct {
	mu     sync.Mutex
	values map[string]string
	sets   int
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	if !ok {
		return "", errors.New("cache miss")
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	c.sets++
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.values, k)
	}
	return nil
}

func (c *memoryCache) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := strconv.ParseInt(c.values[key], 10, 64)
	n++
	c.values[key] = strconv.FormatInt(n, 10)
	return n, nil
}

type memoryLocker struct {
	mu    sync.Mutex
	held  map[string]string
	calls int
}

func (l *memoryLocker) TryLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if _, ok := l.held[key]; ok {
		return "", false, nil
	}
	token := uuid.NewString()
	l.held[key] = token
	return token, true, nil
}

func (l *memoryLocker) Unlock(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

type fakeReports struct {
	err   error
	calls int
}

func (f *fakeReports) GenerateMissionReport(_ context.Context, report ports.MissionReport) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("reports/%s.pdf", report.MissionID), nil
}

type fakeTokens struct {
	claims map[string]ports.AuthClaims
}

func (f fakeTokens) Verify(_ context.Context, token string) (ports.AuthClaims, error) {
	c, ok := f.claims[token]
	if !ok {
		return ports.AuthClaims{}, errors.New("invalid token")
	}
	return c, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc     *application.Service
	db      *memoryDB
	cache   *memoryCache
	locker  *memoryLocker
	reports *fakeReports
	tokens  fakeTokens
	clock   *clock
}

func newFixture() *fixture {
	db := newMemoryDB()
	f := &fixture{
		db:      db,
		cache:   &memoryCache{values: map[string]string{}},
		locker:  &memoryLocker{held: map[string]string{}},
		reports: &fakeReports{},
		tokens:  fakeTokens{claims: map[string]ports.AuthClaims{}},
		clock:   &clock{now: time.Date(2026, 4, 14, 10, 0, 0, 0, time.UTC)},
	}
	f.svc = application.NewService(application.Dependencies{
		Store:       db,
		Requests:    requestRepo{db},
		Missions:    missionRepo{db},
		Caregivers:  caregiverRepo{db},
		Suggestions: suggestionRepo{db},
		JobRuns:     jobRunRepo{db},
		Outbox:      outboxRepo{db},
		EventDedup:  dedupRepo{db},
		Idempotency: idempotencyRepo{db},
		Cache:       f.cache,
		Locker:      f.locker,
		Reports:     f.reports,
		Tokens:      f.tokens,
		Now:         f.clock.Now,
	})
	return f
}

var parisRef = domain.GeoPoint{Latitude: 48.8566, Longitude: 2.3522}

func floatPtr(v float64) *float64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func (f *fixture) addCaregiver(mut func(*domain.Caregiver)) domain.Caregiver {
	c := domain.Caregiver{
		CaregiverID:          uuid.New(),
		UserID:               uuid.New(),
		DisplayName:          "Aide",
		Validated:            true,
		Available:            true,
		ExperienceLevel:      3,
		MinRate:              25,
		City:                 "Paris",
		InterventionRadiusKm: 10,
		AcceptedPatientTypes: "PERSONNE_AGEE,HANDICAP",
		Sex:                  domain.CaregiverSexFemale,
	}
	if mut != nil {
		mut(&c)
	}
	_ = caregiverRepo{f.db}.Upsert(context.Background(), c)
	return c
}

func (f *fixture) addRequest(mut func(*domain.Request)) domain.Request {
	now := f.clock.Now()
	end := now.Add(3 * time.Hour)
	r := domain.Request{
		RequestID:    uuid.New(),
		PatientID:    uuid.New(),
		Type:         domain.RequestTypeNormal,
		PatientType:  "PERSONNE_AGEE",
		DesiredStart: now.Add(time.Hour),
		DesiredEnd:   &end,
		MaxBudget:    30,
		Latitude:     floatPtr(parisRef.Latitude),
		Longitude:    floatPtr(parisRef.Longitude),
		City:         "Paris",
		UrgencyScore: 50,
		Status:       domain.RequestStatusPending,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if mut != nil {
		mut(&r)
	}
	_ = requestRepo{f.db}.Create(context.Background(), r)
	return r
}

func (f *fixture) addMission(req domain.Request, caregiver domain.Caregiver, mut func(*domain.Mission)) domain.Mission {
	now := f.clock.Now()
	caregiverID := caregiver.CaregiverID
	m := domain.Mission{
		MissionID:   uuid.New(),
		RequestID:   req.RequestID,
		CaregiverID: &caregiverID,
		Title:       "Mission",
		StartsAt:    timePtr(req.DesiredStart),
		EndsAt:      req.DesiredEnd,
		Status:      domain.MissionStatusAccepted,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if mut != nil {
		mut(&m)
	}
	_ = missionRepo{f.db}.Create(context.Background(), m)
	return m
}

func (f *fixture) request(id uuid.UUID) domain.Request {
	r, _ := requestRepo{f.db}.Get(context.Background(), id)
	return r
}

func (f *fixture) mission(id uuid.UUID) domain.Mission {
	m, _ := missionRepo{f.db}.Get(context.Background(), id)
	return m
}

func caregiverActor(c domain.Caregiver) domain.Actor {
	return domain.CaregiverActor{UserID: c.UserID, CaregiverID: c.CaregiverID}
}

func patientActor(r domain.Request) domain.Actor {
	return domain.PatientActor{UserID: r.PatientID, PatientID: r.PatientID}
}

var adminActor domain.Actor = domain.AdminActor{UserID: uuid.New()}

func consentAt(p domain.GeoPoint) application.VerificationInput {
	return application.VerificationInput{Latitude: floatPtr(p.Latitude), Longitude: floatPtr(p.Longitude), Consent: true}
}

func portsClaims(userID, role, profileID string) ports.AuthClaims {
	return ports.AuthClaims{UserID: userID, Role: role, ProfileID: profileID, Valid: true}
}
