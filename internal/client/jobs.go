package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Bla-nqo/fundiconnect-builder/internal/models"
	"github.com/Bla-nqo/fundiconnect-builder/internal/realtime"
)

type JobList string

const (
	JobsMine          JobList = "mine"
	JobsOpportunities JobList = "opportunities"
	JobsAssigned      JobList = "assigned"
)

func ParseJobList(s string) (JobList, bool) {
	switch l := JobList(s); l {
	case JobsMine, JobsOpportunities, JobsAssigned:
		return l, true
	}
	return "", false
}

// JobRow is a job with the fields a dashboard derives from it.
type JobRow struct {
	models.Job
	Progress  int
	FundiName string
	Actions   models.JobActions
}

// JobInput is the body of POST /api/jobs. Dates are YYYY-MM-DD.
type JobInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	Budget      int64    `json:"budget"`
	Skills      []string `json:"skills,omitempty"`
	CategoryID  string   `json:"category_id,omitempty"`
	StartDate   string   `json:"start_date,omitempty"`
	EndDate     string   `json:"end_date,omitempty"`
}

// JobsView mirrors one of the job lists, newest first. Mutations re-fetch.
type JobsView struct {
	List JobList
	Jobs *Mirror[models.Job]
	Now  func() time.Time

	sess *Session
	sub  *Subscription

	mu     sync.Mutex
	closed bool
}

func jobKey(j models.Job) uuid.UUID       { return j.ID }
func jobCreatedAt(j models.Job) time.Time { return j.CreatedAt }

// carryJobRelations keeps the joined client and fundi across feed updates.
func carryJobRelations(prev, next models.Job) models.Job {
	if next.Client == nil && prev.Client != nil && prev.ClientID == next.ClientID {
		next.Client = prev.Client
	}
	if next.Fundi == nil && prev.Fundi != nil && next.AssignedTo(prev.Fundi.ID) {
		next.Fundi = prev.Fundi
	}
	return next
}

func (s *Session) OpenJobs(ctx context.Context, list JobList) (*JobsView, error) {
	me := s.User().ID
	if me == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	v := &JobsView{
		List: list,
		Jobs: NewMirror(jobKey, jobCreatedAt, false).Carry(carryJobRelations),
		Now:  time.Now,
		sess: s,
	}

	spec := SubscriptionSpec{Table: models.TableJobs}
	switch list {
	case JobsMine:
		spec.Filter = "client_id=eq." + me.String()
	case JobsAssigned:
		spec.Filter = "fundi_id=eq." + me.String()
	case JobsOpportunities:
		// A job leaves the slice when it is taken, so follow every row and
		// let the mirror drop the ones that no longer qualify.
		v.Jobs.Keep(func(j models.Job) bool {
			return j.Status == models.JobOpen && !j.Assigned() && j.ClientID != me
		})
	default:
		return nil, fmt.Errorf("client: unknown job list %q", list)
	}

	v.sub = s.Subscribe(spec, v.apply, OnResync(v.resync))
	if err := v.Refresh(ctx); err != nil {
		v.Close()
		return nil, err
	}
	return v, nil
}

// Refresh re-fetches the whole list. On failure the last list is kept.
func (v *JobsView) Refresh(ctx context.Context) error {
	var list []models.Job
	if err := v.sess.API.Get(ctx, "/api/jobs/"+string(v.List), &list); err != nil {
		return v.sess.report(err, "Failed to load jobs")
	}
	if v.isClosed() {
		return ErrViewClosed
	}
	v.Jobs.Reset(list)
	return nil
}

func (v *JobsView) apply(ch realtime.Change) {
	if v.isClosed() {
		return
	}
	if err := v.Jobs.Apply(ch); err != nil {
		slog.Warn("job change dropped", "error", err)
	}
}

func (v *JobsView) resync() {
	ctx, cancel := context.WithTimeout(context.Background(), v.sess.API.Timeout)
	defer cancel()
	if err := v.Refresh(ctx); err != nil && !errors.Is(err, ErrViewClosed) {
		slog.Warn("jobs resync failed", "list", v.List, "error", err)
	}
}

// Rows is the current list with progress and actions computed now.
func (v *JobsView) Rows() []JobRow {
	now := v.Now()
	jobs := v.Jobs.Snapshot()
	out := make([]JobRow, 0, len(jobs))
	for i := range jobs {
		j := &jobs[i]
		out = append(out, JobRow{
			Job:       *j,
			Progress:  j.Progress(now),
			FundiName: j.FundiName(),
			Actions:   j.Actions(),
		})
	}
	return out
}

// Create posts a job and re-fetches.
func (v *JobsView) Create(ctx context.Context, in JobInput) (*models.Job, error) {
	var job models.Job
	msg, err := v.sess.API.Do(ctx, "POST", "/api/jobs", in, &job)
	if err != nil {
		return nil, v.sess.report(err, "Failed to post job")
	}
	v.sess.notify(Notification{Level: LevelSuccess, Title: msg})
	v.refetch(ctx)
	return &job, nil
}

func (v *JobsView) Apply(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	return v.transition(ctx, id, "apply", "Failed to apply for job")
}

func (v *JobsView) Start(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	return v.transition(ctx, id, "start", "Failed to start job")
}

func (v *JobsView) Complete(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	return v.transition(ctx, id, "complete", "Failed to complete job")
}

func (v *JobsView) Cancel(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	return v.transition(ctx, id, "cancel", "Failed to cancel job")
}

func (v *JobsView) transition(ctx context.Context, id uuid.UUID, action, failTitle string) (*models.Job, error) {
	var job models.Job
	msg, err := v.sess.API.Do(ctx, "POST", "/api/jobs/"+id.String()+"/"+action, nil, &job)
	if err != nil {
		return nil, v.sess.report(err, failTitle)
	}
	v.sess.notify(Notification{Level: LevelSuccess, Title: msg})
	v.refetch(ctx)
	return &job, nil
}

// refetch follows a successful mutation. Its failure was already reported.
func (v *JobsView) refetch(ctx context.Context) {
	if v.isClosed() {
		return
	}
	_ = v.Refresh(ctx)
}

func (v *JobsView) isClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

func (v *JobsView) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.mu.Unlock()
	v.sub.Close()
}
