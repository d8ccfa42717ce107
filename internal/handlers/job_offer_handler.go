package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Bla-nqo/fundiconnect-builder/internal/response"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/jobs"
)

type JobHandler struct {
	Jobs *jobs.Service
}

func NewJobHandler(svc *jobs.Service) *JobHandler {
	return &JobHandler{Jobs: svc}
}

// CreateJobRequest is the request body for posting a job
type CreateJobRequest struct {
	Title       string   `json:"title" validate:"required,max=160"`
	Description string   `json:"description" validate:"max=5000"`
	Location    string   `json:"location" validate:"max=200"`
	Budget      int64    `json:"budget" validate:"min=0"`
	Skills      []string `json:"skills"`
	CategoryID  string   `json:"category_id" validate:"omitempty,uuid"`
	StartDate   string   `json:"start_date"` // ISO format: 2026-01-03
	EndDate     string   `json:"end_date"`
}

func parseDate(s string) (*time.Time, bool) {
	if s == "" {
		return nil, true
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, false
		}
	}
	t = t.UTC()
	return &t, true
}

func (h *JobHandler) Create(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if sess == nil {
		return err
	}
	var req CreateJobRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	fields := response.FieldErrors{}
	start, ok := parseDate(req.StartDate)
	if !ok {
		fields.Add("start_date", "must be a date (YYYY-MM-DD)")
	}
	end, ok := parseDate(req.EndDate)
	if !ok {
		fields.Add("end_date", "must be a date (YYYY-MM-DD)")
	}
	if len(fields) > 0 {
		return response.ValidationFailed(c, fields)
	}

	in := jobs.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Budget:      req.Budget,
		Skills:      req.Skills,
		StartDate:   start,
		EndDate:     end,
	}
	if req.CategoryID != "" {
		id := uuid.MustParse(req.CategoryID)
		in.CategoryID = &id
	}

	job, err := h.Jobs.Create(c.UserContext(), sess.UserID, in)
	if err != nil {
		return fail(c, err)
	}
	return response.Created(c, "Job posted", job)
}

func (h *JobHandler) Mine(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if sess == nil {
		return err
	}
	list, err := h.Jobs.ListForClient(c.UserContext(), sess.UserID)
	if err != nil {
		return fail(c, err)
	}
	return response.OK(c, "OK", list)
}

func (h *JobHandler) Opportunities(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if sess == nil {
		return err
	}
	list, err := h.Jobs.ListOpportunities(c.UserContext(), sess.UserID)
	if err != nil {
		return fail(c, err)
	}
	return response.OK(c, "OK", list)
}

func (h *JobHandler) Assigned(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if sess == nil {
		return err
	}
	list, err := h.Jobs.ListAssigned(c.UserContext(), sess.UserID)
	if err != nil {
		return fail(c, err)
	}
	return response.OK(c, "OK", list)
}

func (h *JobHandler) Get(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if sess == nil {
		return err
	}
	id, ok, err := paramUUID(c, "id")
	if !ok {
		return err
	}
	view, err := h.Jobs.Get(c.UserContext(), sess.UserID, sess.IsAdmin(), id)
	if err != nil {
		return fail(c, err)
	}
	return response.OK(c, "OK", view)
}

type jobTransition func(*jobs.Service, *fiber.Ctx, uuid.UUID, uuid.UUID) (interface{}, error)

// transition runs one of the single-job status changes.
func (h *JobHandler) transition(message string, run jobTransition) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := currentSession(c)
		if sess == nil {
			return err
		}
		id, ok, err := paramUUID(c, "id")
		if !ok {
			return err
		}
		job, err := run(h.Jobs, c, sess.UserID, id)
		if err != nil {
			return fail(c, err)
		}
		return response.OK(c, message, job)
	}
}

func (h *JobHandler) Apply() fiber.Handler {
	return h.transition("Applied to job", func(s *jobs.Service, c *fiber.Ctx, uid, id uuid.UUID) (interface{}, error) {
		return s.Apply(c.UserContext(), uid, id)
	})
}

func (h *JobHandler) Start() fiber.Handler {
	return h.transition("Job started", func(s *jobs.Service, c *fiber.Ctx, uid, id uuid.UUID) (interface{}, error) {
		return s.Start(c.UserContext(), uid, id)
	})
}

func (h *JobHandler) Complete() fiber.Handler {
	return h.transition("Job completed", func(s *jobs.Service, c *fiber.Ctx, uid, id uuid.UUID) (interface{}, error) {
		return s.Complete(c.UserContext(), uid, id)
	})
}

func (h *JobHandler) Cancel() fiber.Handler {
	return h.transition("Job cancelled", func(s *jobs.Service, c *fiber.Ctx, uid, id uuid.UUID) (interface{}, error) {
		return s.Cancel(c.UserContext(), uid, id)
	})
}
