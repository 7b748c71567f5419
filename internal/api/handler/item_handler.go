package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/andamios/andamios-api/internal/core/domain"
	"github.com/andamios/andamios-api/internal/core/ports"
)

type ItemHandler struct {
	items ports.ItemService
}

func NewItemHandler(items ports.ItemService) *ItemHandler {
	return &ItemHandler{items: items}
}

// List returns every item.
//
// @Summary      List items
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   itemResponse
// @Failure      401  {object}  apierr.Response
// @Router       /items [get]
func (h *ItemHandler) List(c echo.Context) error {
	items, err := h.items.ListItems(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]itemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toItemResponse(it))
	}
	return c.JSON(http.StatusOK, out)
}

// Create adds an item.
//
// @Summary      Create item
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      itemCreateRequest  true  "New item"
// @Success      201   {object}  itemResponse
// @Failure      422   {object}  apierr.Response
// @Router       /items [post]
func (h *ItemHandler) Create(c echo.Context) error {
	var req itemCreateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	item, err := h.items.CreateItem(c.Request().Context(), ports.CreateItemInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toItemResponse(item))
}

// Get returns one item.
//
// @Summary      Get item
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  itemResponse
// @Failure      404  {object}  apierr.Response
// @Router       /items/{id} [get]
func (h *ItemHandler) Get(c echo.Context) error {
	item, err := h.items.GetItem(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toItemResponse(item))
}

// Update applies a partial change.
//
// @Summary      Update item
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Item ID"
// @Param        body  body      itemUpdateRequest  true  "Fields to change"
// @Success      200   {object}  itemResponse
// @Failure      400   {object}  apierr.Response
// @Failure      404   {object}  apierr.Response
// @Failure      422   {object}  apierr.Response
// @Router       /items/{id} [put]
func (h *ItemHandler) Update(c echo.Context) error {
	var req itemUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	item, err := h.items.UpdateItem(c.Request().Context(), c.Param("id"), domain.ItemUpdate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toItemResponse(item))
}

// Delete removes an item.
//
// @Summary      Delete item
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  apierr.Response
// @Router       /items/{id} [delete]
func (h *ItemHandler) Delete(c echo.Context) error {
	if err := h.items.DeleteItem(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Item deleted successfully"})
}
