package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Bla-nqo/fundiconnect-builder/internal/response"
	"github.com/Bla-nqo/fundiconnect-builder/internal/services/catalog"
)

type CategoryHandler struct {
	Catalog *catalog.Service
}

func NewCategoryHandler(svc *catalog.Service) *CategoryHandler {
	return &CategoryHandler{Catalog: svc}
}

type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=80"`
	Description string `json:"description" validate:"max=500"`
	Icon        string `json:"icon" validate:"max=40"`
}

func (r CategoryRequest) input() catalog.CategoryInput {
	return catalog.CategoryInput{Name: r.Name, Description: r.Description, Icon: r.Icon}
}

func (h *CategoryHandler) GetCategories(c *fiber.Ctx) error {
	categories, err := h.Catalog.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    categories,
	})
}

func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var req CategoryRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	cat, err := h.Catalog.Create(c.UserContext(), req.input())
	if err != nil {
		return fail(c, err)
	}
	return response.Created(c, "Category created", cat)
}

func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	id, ok, err := paramUUID(c, "id")
	if !ok {
		return err
	}
	var req CategoryRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	cat, err := h.Catalog.Update(c.UserContext(), id, req.input())
	if err != nil {
		return fail(c, err)
	}
	return response.OK(c, "Category updated", cat)
}

func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id, ok, err := paramUUID(c, "id")
	if !ok {
		return err
	}
	if err := h.Catalog.Delete(c.UserContext(), id); err != nil {
		return fail(c, err)
	}
	return response.OK(c, "Category deleted", nil)
}
