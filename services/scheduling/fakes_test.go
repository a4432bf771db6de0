package scheduling

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bookline/models"
)

// In-memory stand-ins for the Mongo repositories and the redis hold
// store, so the engine's behavior can be exercised hermetically.

type fakeApptRepo struct {
	mu    sync.Mutex
	appts map[string]models.Appointment
}

func newFakeApptRepo() *fakeApptRepo {
	return &fakeApptRepo{appts: make(map[string]models.Appointment)}
}

func (r *fakeApptRepo) GetByID(id string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *fakeApptRepo) Create(appt *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt.CreatedAt = time.Now()
	r.appts[appt.ID] = *appt
	return nil
}

func (r *fakeApptRepo) Update(appt *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appts[appt.ID]; !ok {
		return fmt.Errorf("appointment with id %s not found", appt.ID)
	}
	r.appts[appt.ID] = *appt
	return nil
}

func (r *fakeApptRepo) UpdateStatus(id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appts[id]
	if !ok {
		return fmt.Errorf("appointment with id %s not found", id)
	}
	a.Status = status
	r.appts[id] = a
	return nil
}

func (r *fakeApptRepo) ListActiveInRange(ownerID string, from, to time.Time) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Appointment
	for _, a := range r.appts {
		if a.OwnerID != ownerID || !a.IsActive() {
			continue
		}
		if a.Start.Before(to) && a.End.After(from) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (r *fakeApptRepo) CountActiveForDay(ownerID string, dayStart, dayEnd time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.appts {
		if a.OwnerID != ownerID || !a.IsActive() {
			continue
		}
		if !a.Start.Before(dayStart) && a.Start.Before(dayEnd) {
			n++
		}
	}
	return n, nil
}

func (r *fakeApptRepo) ListActiveByClient(ownerID, clientID string) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Appointment
	for _, a := range r.appts {
		if a.OwnerID == ownerID && a.ClientID == clientID && a.IsActive() {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (r *fakeApptRepo) ListStartingBetween(from, to time.Time) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Appointment
	for _, a := range r.appts {
		if a.IsActive() && !a.Start.Before(from) && a.Start.Before(to) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

type fakeWaitlistRepo struct {
	mu      sync.Mutex
	entries map[string]models.WaitlistEntry
}

func newFakeWaitlistRepo() *fakeWaitlistRepo {
	return &fakeWaitlistRepo{entries: make(map[string]models.WaitlistEntry)}
}

func (r *fakeWaitlistRepo) GetByID(id string) (*models.WaitlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *fakeWaitlistRepo) Create(entry *models.WaitlistEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	r.entries[entry.ID] = *entry
	return nil
}

func (r *fakeWaitlistRepo) Update(entry *models.WaitlistEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[entry.ID]; !ok {
		return fmt.Errorf("waitlist entry with id %s not found", entry.ID)
	}
	r.entries[entry.ID] = *entry
	return nil
}

func (r *fakeWaitlistRepo) UpdateStatus(id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("waitlist entry with id %s not found", id)
	}
	e.Status = status
	r.entries[id] = e
	return nil
}

func (r *fakeWaitlistRepo) ListActiveByOwner(ownerID string) ([]models.WaitlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.WaitlistEntry
	for _, e := range r.entries {
		if e.OwnerID == ownerID && e.Status == models.WaitlistActive {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeWaitlistRepo) ListActiveByClientService(ownerID, clientID, serviceID string) ([]models.WaitlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.WaitlistEntry
	for _, e := range r.entries {
		if e.OwnerID == ownerID && e.ClientID == clientID && e.ServiceID == serviceID &&
			(e.Status == models.WaitlistActive || e.Status == models.WaitlistOffered) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeWaitlistRepo) ListByClient(ownerID, clientID string) ([]models.WaitlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.WaitlistEntry
	for _, e := range r.entries {
		if e.OwnerID == ownerID && e.ClientID == clientID &&
			(e.Status == models.WaitlistActive || e.Status == models.WaitlistOffered) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeWaitlistRepo) MarkOffered(id string, offered, gap models.Interval, notifiedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("waitlist entry with id %s not found", id)
	}
	e.Status = models.WaitlistOffered
	e.OfferedInterval = offered
	e.OfferedGap = gap
	e.NotifyCount++
	t := notifiedAt
	e.LastNotifiedAt = &t
	r.entries[id] = e
	return nil
}

func (r *fakeWaitlistRepo) ListOffered() ([]models.WaitlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.WaitlistEntry
	for _, e := range r.entries {
		if e.Status == models.WaitlistOffered {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeOwnerRepo struct {
	mu       sync.Mutex
	owners   map[string]models.Owner
	services map[string]models.Service
	clients  map[string]models.Client
	settings map[string]models.Settings
	audits   []models.AuditLog
}

func newFakeOwnerRepo() *fakeOwnerRepo {
	return &fakeOwnerRepo{
		owners:   make(map[string]models.Owner),
		services: make(map[string]models.Service),
		clients:  make(map[string]models.Client),
		settings: make(map[string]models.Settings),
	}
}

func (r *fakeOwnerRepo) GetOwnerByID(id string) (*models.Owner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.owners[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (r *fakeOwnerRepo) GetOwnerByPhone(phone string) (*models.Owner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.owners {
		if o.Phone == phone {
			return &o, nil
		}
	}
	return nil, nil
}

func (r *fakeOwnerRepo) CreateOwner(owner *models.Owner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[owner.ID] = *owner
	return nil
}

func (r *fakeOwnerRepo) UpdateOwnerIntent(id, intent string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.owners[id]
	if !ok {
		return fmt.Errorf("owner with id %s not found", id)
	}
	o.Intent = intent
	r.owners[id] = o
	return nil
}

func (r *fakeOwnerRepo) GetServiceByID(id string) (*models.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.services[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *fakeOwnerRepo) ListServices(ownerID string) ([]models.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Service
	for _, s := range r.services {
		if s.OwnerID == ownerID && s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeOwnerRepo) CreateService(svc *models.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[svc.ID] = *svc
	return nil
}

func (r *fakeOwnerRepo) UpdateService(svc *models.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[svc.ID] = *svc
	return nil
}

func (r *fakeOwnerRepo) GetClientByID(id string) (*models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *fakeOwnerRepo) GetClientByPhone(ownerID, phone string) (*models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clients {
		if c.OwnerID == ownerID && c.Phone == phone {
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeOwnerRepo) CreateClient(client *models.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client.ID] = *client
	return nil
}

func (r *fakeOwnerRepo) UpdateClient(client *models.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[client.ID] = *client
	return nil
}

func (r *fakeOwnerRepo) GetSettings(ownerID string) (*models.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[ownerID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *fakeOwnerRepo) UpsertSettings(settings *models.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings[settings.OwnerID] = *settings
	return nil
}

func (r *fakeOwnerRepo) AppendAudit(entry *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.CreatedAt = time.Now()
	r.audits = append(r.audits, *entry)
	return nil
}

func (r *fakeOwnerRepo) ListAudit(ownerID string, limit int) ([]models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.AuditLog
	for i := len(r.audits) - 1; i >= 0 && len(out) < limit; i-- {
		if r.audits[i].OwnerID == ownerID {
			out = append(out, r.audits[i])
		}
	}
	return out, nil
}

type fakeHoldStore struct {
	mu       sync.Mutex
	holds    map[string]models.Hold
	outreach map[string]int
}

func newFakeHoldStore() *fakeHoldStore {
	return &fakeHoldStore{
		holds:    make(map[string]models.Hold),
		outreach: make(map[string]int),
	}
}

func (s *fakeHoldStore) key(ownerID, entryID string) string {
	return ownerID + ":" + entryID
}

func (s *fakeHoldStore) Put(ctx context.Context, hold models.Hold, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holds[s.key(hold.OwnerID, hold.EntryID)] = hold
	return nil
}

func (s *fakeHoldStore) Get(ctx context.Context, ownerID, entryID string) (*models.Hold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[s.key(ownerID, entryID)]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (s *fakeHoldStore) Delete(ctx context.Context, ownerID, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.holds, s.key(ownerID, entryID))
	return nil
}

func (s *fakeHoldStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Hold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Hold
	for _, h := range s.holds {
		if h.OwnerID == ownerID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *fakeHoldStore) IncrOutreach(ctx context.Context, ownerID string, gap models.Interval) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%s:%d", ownerID, gap.Start.Unix())
	s.outreach[key]++
	return s.outreach[key], nil
}

// expire drops a hold as if its TTL ran out.
func (s *fakeHoldStore) expire(ownerID, entryID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.holds, s.key(ownerID, entryID))
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *recordingNotifier) record(kind string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, kind)
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string{}, n.sent...)
}

func (n *recordingNotifier) BookingConfirmed(ctx context.Context, appt models.Appointment, priceCents int) {
	n.record("booking_confirmed")
}

func (n *recordingNotifier) BookingCancelled(ctx context.Context, appt models.Appointment, reason string) {
	n.record("booking_cancelled")
}

func (n *recordingNotifier) WaitlistOffer(ctx context.Context, entry models.WaitlistEntry, hold models.Hold) {
	n.record("waitlist_offer")
}

func (n *recordingNotifier) ShiftProposal(ctx context.Context, ownerID string, proposal models.ShiftProposal) {
	n.record("shift_proposal")
}

func (n *recordingNotifier) Reminder(ctx context.Context, appt models.Appointment, hoursBefore int) {
	n.record("reminder")
}
