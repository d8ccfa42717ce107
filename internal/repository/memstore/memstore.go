// Package memstore is an in-process implementation of the repository
// interfaces. It backs STORAGE_DRIVER=memory and the service tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/repository"
)

type data struct {
	mu sync.RWMutex

	users        map[uuid.UUID]models.User
	roles        map[uuid.UUID][]models.Role
	fundis       map[uuid.UUID]models.FundiProfile
	jobs         map[uuid.UUID]models.Job
	messages     map[uuid.UUID]models.Message
	ratings      map[uuid.UUID]models.Rating
	restrictions map[uuid.UUID]models.Restriction
	appeals      map[uuid.UUID]models.Appeal
	categories   map[uuid.UUID]models.JobCategory
	wallet       map[uuid.UUID]models.WalletTransaction

	now func() time.Time
}

// New returns a Store whose repositories share one in-memory dataset.
// Transactions run inline without rollback.
func New() *repository.Store {
	d := &data{
		users:        map[uuid.UUID]models.User{},
		roles:        map[uuid.UUID][]models.Role{},
		fundis:       map[uuid.UUID]models.FundiProfile{},
		jobs:         map[uuid.UUID]models.Job{},
		messages:     map[uuid.UUID]models.Message{},
		ratings:      map[uuid.UUID]models.Rating{},
		restrictions: map[uuid.UUID]models.Restriction{},
		appeals:      map[uuid.UUID]models.Appeal{},
		categories:   map[uuid.UUID]models.JobCategory{},
		wallet:       map[uuid.UUID]models.WalletTransaction{},
		now:          time.Now,
	}
	return &repository.Store{
		Users:        &users{d},
		Fundis:       &fundis{d},
		Jobs:         &jobs{d},
		Messages:     &messages{d},
		Ratings:      &ratings{d},
		Restrictions: &restrictions{d},
		Categories:   &categories{d},
		Wallet:       &wallet{d},
	}
}

// stamp assigns an id and creation time the way the database defaults would.
func (d *data) stamp(id *uuid.UUID, created *time.Time) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	if created.IsZero() {
		*created = d.now()
	}
}

func (d *data) userPtr(id uuid.UUID) *models.User {
	u, ok := d.users[id]
	if !ok {
		return nil
	}
	return &u
}

// ---- users ----

type users struct{ d *data }

func (r *users) Create(ctx context.Context, u *models.User) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()

	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range r.d.users {
		if existing.Email == u.Email || existing.ID == u.ID {
			return repository.ErrDuplicate
		}
		if u.Phone != nil && existing.Phone != nil && *u.Phone == *existing.Phone {
			return repository.ErrDuplicate
		}
	}
	r.d.stamp(&u.ID, &u.CreatedAt)
	u.UpdatedAt = u.CreatedAt
	u.IsActive = true
	stored := *u
	stored.FundiProfile = nil
	r.d.users[u.ID] = stored
	return nil
}

func (r *users) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	u := r.d.userPtr(id)
	if u == nil {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (r *users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.d.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *users) Update(ctx context.Context, u *models.User) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	u.UpdatedAt = r.d.now()
	stored := *u
	stored.FundiProfile = nil
	r.d.users[u.ID] = stored
	return nil
}

func (r *users) GrantRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, existing := range r.d.roles[userID] {
		if existing == role {
			return nil
		}
	}
	r.d.roles[userID] = append(r.d.roles[userID], role)
	return nil
}

func (r *users) Roles(ctx context.Context, userID uuid.UUID) ([]models.Role, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	u, ok := r.d.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := []models.Role{u.Role}
	for _, role := range r.d.roles[userID] {
		if role != u.Role {
			out = append(out, role)
		}
	}
	return out, nil
}

func (r *users) Count(ctx context.Context) (int64, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	return int64(len(r.d.users)), nil
}

// ---- fundi profiles ----

type fundis struct{ d *data }

func (r *fundis) withUser(p models.FundiProfile) *models.FundiProfile {
	p.User = r.d.userPtr(p.UserID)
	return &p
}

func (r *fundis) Create(ctx context.Context, p *models.FundiProfile) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, existing := range r.d.fundis {
		if existing.UserID == p.UserID {
			return repository.ErrDuplicate
		}
	}
	r.d.stamp(&p.ID, &p.CreatedAt)
	p.UpdatedAt = p.CreatedAt
	if p.ApprovalStatus == "" {
		p.ApprovalStatus = models.ApprovalPending
	}
	stored := *p
	stored.User = nil
	r.d.fundis[p.ID] = stored
	return nil
}

func (r *fundis) FindByID(ctx context.Context, id uuid.UUID) (*models.FundiProfile, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	p, ok := r.d.fundis[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withUser(p), nil
}

func (r *fundis) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.FundiProfile, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	for _, p := range r.d.fundis {
		if p.UserID == userID {
			return r.withUser(p), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fundis) ListByStatus(ctx context.Context, status models.ApprovalStatus) ([]models.FundiProfile, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	out := []models.FundiProfile{}
	for _, p := range r.d.fundis {
		if p.ApprovalStatus == status {
			out = append(out, *r.withUser(p))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fundis) SetStatus(ctx context.Context, id uuid.UUID, status models.ApprovalStatus, at time.Time) (*models.FundiProfile, error) {
	return r.update(id, func(p *models.FundiProfile) {
		p.ApprovalStatus = status
		p.UpdatedAt = at
	})
}

func (r *fundis) SetMobileVerified(ctx context.Context, id uuid.UUID, verified bool, at time.Time) (*models.FundiProfile, error) {
	return r.update(id, func(p *models.FundiProfile) {
		p.MobileVerified = verified
		p.UpdatedAt = at
	})
}

func (r *fundis) update(id uuid.UUID, fn func(p *models.FundiProfile)) (*models.FundiProfile, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	p, ok := r.d.fundis[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	fn(&p)
	r.d.fundis[id] = p
	return r.withUser(p), nil
}

func (r *fundis) CountByStatus(ctx context.Context, status models.ApprovalStatus) (int64, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var n int64
	for _, p := range r.d.fundis {
		if p.ApprovalStatus == status {
			n++
		}
	}
	return n, nil
}

// ---- jobs ----

type jobs struct{ d *data }

func (r *jobs) withUsers(j models.Job) models.Job {
	j.Client = r.d.userPtr(j.ClientID)
	if j.FundiID != nil {
		j.Fundi = r.d.userPtr(*j.FundiID)
	}
	return j
}

func (r *jobs) list(match func(j models.Job) bool) []models.Job {
	out := []models.Job{}
	for _, j := range r.d.jobs {
		if match(j) {
			out = append(out, r.withUsers(j))
		}
	}
	sort.SliceStable(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out
}

func (r *jobs) Create(ctx context.Context, j *models.Job) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.jobs[j.ID]; ok && j.ID != uuid.Nil {
		return repository.ErrDuplicate
	}
	r.d.stamp(&j.ID, &j.CreatedAt)
	j.UpdatedAt = j.CreatedAt
	if j.Status == "" {
		j.Status = models.JobOpen
	}
	stored := *j
	stored.Client, stored.Fundi = nil, nil
	r.d.jobs[j.ID] = stored
	return nil
}

func (r *jobs) FindByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	j, ok := r.d.jobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := r.withUsers(j)
	return &out, nil
}

func (r *jobs) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Job, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	return r.list(func(j models.Job) bool { return j.ClientID == clientID }), nil
}

func (r *jobs) ListByFundi(ctx context.Context, fundiID uuid.UUID) ([]models.Job, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	return r.list(func(j models.Job) bool { return j.AssignedTo(fundiID) }), nil
}

func (r *jobs) ListOpen(ctx context.Context) ([]models.Job, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	return r.list(func(j models.Job) bool { return j.Status == models.JobOpen && !j.Assigned() }), nil
}

func (r *jobs) Assign(ctx context.Context, jobID, fundiID uuid.UUID, at time.Time) (*models.Job, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	j, ok := r.d.jobs[jobID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if j.Status != models.JobOpen || j.Assigned() {
		return nil, repository.ErrConflict
	}
	id := fundiID
	j.FundiID = &id
	j.Status = models.JobAccepted
	j.UpdatedAt = at
	r.d.jobs[jobID] = j
	out := r.withUsers(j)
	return &out, nil
}

func (r *jobs) UpdateStatus(ctx context.Context, jobID uuid.UUID, from []models.JobStatus, to models.JobStatus, at time.Time) (*models.Job, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	j, ok := r.d.jobs[jobID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	allowed := false
	for _, s := range from {
		if j.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, repository.ErrConflict
	}
	j.Status = to
	j.UpdatedAt = at
	switch to {
	case models.JobInProgress:
		if j.StartDate == nil {
			start := at
			j.StartDate = &start
		}
	case models.JobCompleted:
		if j.EndDate == nil {
			end := at
			j.EndDate = &end
		}
	}
	r.d.jobs[jobID] = j
	out := r.withUsers(j)
	return &out, nil
}

func (r *jobs) CountByStatus(ctx context.Context, status models.JobStatus) (int64, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var n int64
	for _, j := range r.d.jobs {
		if j.Status == status {
			n++
		}
	}
	return n, nil
}

// ---- messages ----

type messages struct{ d *data }

func (r *messages) Create(ctx context.Context, m *models.Message) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.messages[m.ID]; ok {
		return repository.ErrDuplicate
	}
	r.d.stamp(&m.ID, &m.CreatedAt)
	r.d.messages[m.ID] = *m
	return nil
}

func (r *messages) FindByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	m, ok := r.d.messages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (r *messages) Conversation(ctx context.Context, a, b uuid.UUID) ([]models.Message, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	out := []models.Message{}
	for _, m := range r.d.messages {
		if (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ---- ratings ----

type ratings struct{ d *data }

func (r *ratings) Create(ctx context.Context, rating *models.Rating) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, existing := range r.d.ratings {
		if existing.JobID == rating.JobID && existing.FundiID == rating.FundiID {
			return repository.ErrDuplicate
		}
	}
	r.d.stamp(&rating.ID, &rating.CreatedAt)
	stored := *rating
	stored.Job, stored.Client = nil, nil
	r.d.ratings[rating.ID] = stored
	return nil
}

func (r *ratings) ListByFundi(ctx context.Context, fundiID uuid.UUID) ([]models.Rating, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	out := []models.Rating{}
	for _, rating := range r.d.ratings {
		if rating.FundiID == fundiID {
			rating.Client = r.d.userPtr(rating.ClientID)
			out = append(out, rating)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ---- restrictions & appeals ----

type restrictions struct{ d *data }

func (r *restrictions) withAppeals(res models.Restriction) *models.Restriction {
	res.Appeals = nil
	for _, a := range r.d.appeals {
		if a.RestrictionID == res.ID {
			res.Appeals = append(res.Appeals, a)
		}
	}
	sort.SliceStable(res.Appeals, func(i, j int) bool { return res.Appeals[i].CreatedAt.After(res.Appeals[j].CreatedAt) })
	return &res
}

func (r *restrictions) Create(ctx context.Context, res *models.Restriction) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	r.d.stamp(&res.ID, &res.CreatedAt)
	res.UpdatedAt = res.CreatedAt
	res.IsActive = true
	stored := *res
	stored.Appeals = nil
	r.d.restrictions[res.ID] = stored
	return nil
}

func (r *restrictions) FindByID(ctx context.Context, id uuid.UUID) (*models.Restriction, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	res, ok := r.d.restrictions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withAppeals(res), nil
}

func (r *restrictions) ActiveForUser(ctx context.Context, userID uuid.UUID) (*models.Restriction, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var found *models.Restriction
	for _, res := range r.d.restrictions {
		if res.UserID == userID && res.IsActive {
			if found == nil || res.CreatedAt.After(found.CreatedAt) {
				found = r.withAppeals(res)
			}
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (r *restrictions) ListActive(ctx context.Context) ([]models.Restriction, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	out := []models.Restriction{}
	for _, res := range r.d.restrictions {
		if res.IsActive {
			out = append(out, *r.withAppeals(res))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *restrictions) Lift(ctx context.Context, id uuid.UUID, at time.Time) (*models.Restriction, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	res, ok := r.d.restrictions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !res.IsActive {
		return nil, repository.ErrConflict
	}
	lifted := at
	res.IsActive = false
	res.LiftedAt = &lifted
	res.UpdatedAt = at
	r.d.restrictions[id] = res
	return r.withAppeals(res), nil
}

func (r *restrictions) CreateAppeal(ctx context.Context, a *models.Appeal) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, existing := range r.d.appeals {
		if existing.RestrictionID == a.RestrictionID && existing.Pending() {
			return repository.ErrDuplicate
		}
	}
	r.d.stamp(&a.ID, &a.CreatedAt)
	a.UpdatedAt = a.CreatedAt
	a.Status = models.AppealPending
	r.d.appeals[a.ID] = *a
	return nil
}

func (r *restrictions) FindAppeal(ctx context.Context, id uuid.UUID) (*models.Appeal, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	a, ok := r.d.appeals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *restrictions) ListPendingAppeals(ctx context.Context) ([]models.Appeal, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	out := []models.Appeal{}
	for _, a := range r.d.appeals {
		if a.Pending() {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *restrictions) ResolveAppeal(ctx context.Context, id uuid.UUID, status models.AppealStatus, response string, reviewer uuid.UUID, at time.Time) (*models.Appeal, error) {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	a, ok := r.d.appeals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !a.Pending() {
		return nil, repository.ErrConflict
	}
	resp, rev, when := response, reviewer, at
	a.Status = status
	a.AdminResponse = &resp
	a.ReviewedBy = &rev
	a.ReviewedAt = &when
	a.UpdatedAt = at
	r.d.appeals[id] = a
	return &a, nil
}

// ---- categories ----

type categories struct{ d *data }

func (r *categories) List(ctx context.Context) ([]models.JobCategory, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	out := make([]models.JobCategory, 0, len(r.d.categories))
	for _, c := range r.d.categories {
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *categories) FindByID(ctx context.Context, id uuid.UUID) (*models.JobCategory, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	c, ok := r.d.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *categories) nameTaken(name string, except uuid.UUID) bool {
	for _, c := range r.d.categories {
		if c.ID != except && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (r *categories) Create(ctx context.Context, c *models.JobCategory) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if r.nameTaken(c.Name, uuid.Nil) {
		return repository.ErrDuplicate
	}
	r.d.stamp(&c.ID, &c.CreatedAt)
	c.UpdatedAt = c.CreatedAt
	r.d.categories[c.ID] = *c
	return nil
}

func (r *categories) Update(ctx context.Context, c *models.JobCategory) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	existing, ok := r.d.categories[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.nameTaken(c.Name, c.ID) {
		return repository.ErrDuplicate
	}
	existing.Name = c.Name
	existing.Description = c.Description
	existing.Icon = c.Icon
	existing.UpdatedAt = r.d.now()
	r.d.categories[c.ID] = existing
	return nil
}

func (r *categories) Delete(ctx context.Context, id uuid.UUID) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.categories[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.d.categories, id)
	return nil
}

// ---- wallet ----

type wallet struct{ d *data }

func (r *wallet) Record(ctx context.Context, entry *models.WalletTransaction) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	for _, existing := range r.d.wallet {
		if existing.UserID == entry.UserID && existing.Type == entry.Type &&
			existing.ReferenceID != nil && entry.ReferenceID != nil &&
			*existing.ReferenceID == *entry.ReferenceID {
			return repository.ErrDuplicate
		}
	}
	r.d.stamp(&entry.ID, &entry.CreatedAt)
	stored := *entry
	stored.User = nil
	r.d.wallet[entry.ID] = stored
	return nil
}

func (r *wallet) Sum(ctx context.Context, userID uuid.UUID, typ models.WalletTrxType) (int64, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var total int64
	for _, e := range r.d.wallet {
		if e.UserID == userID && e.Type == typ {
			total += e.Amount
		}
	}
	return total, nil
}

func (r *wallet) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.WalletTransaction, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	out := []models.WalletTransaction{}
	for _, e := range r.d.wallet {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
