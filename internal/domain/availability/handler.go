package availability

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careslot/careslot/internal/platform/auth"
	"github.com/careslot/careslot/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group, authMW echo.MiddlewareFunc) {
	api.GET("/availability", h.OpenSlots)

	doc := api.Group("/doctor/availability", authMW, auth.RequireRole("doctor"))
	doc.GET("", h.List)
	doc.POST("", h.Add)
	doc.DELETE("/:id", h.Delete)
}

// OpenSlots handles the public read used by the booking page.
func (h *Handler) OpenSlots(c echo.Context) error {
	doctorID, err := uuid.Parse(c.QueryParam("doctorId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctorId")
	}
	date := c.QueryParam("date")
	if date == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date is required")
	}

	slots, err := h.svc.OpenSlots(c.Request().Context(), doctorID, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"doctorId":  doctorID,
		"date":      date,
		"timeSlots": slots,
	})
}

type addRequest struct {
	Date      string   `json:"date"`
	TimeSlots []string `json:"timeSlots"`
}

func (h *Handler) Add(c echo.Context) error {
	var req addRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	doctorID := auth.AccountIDFromContext(c.Request().Context())
	day, err := h.svc.Add(c.Request().Context(), doctorID, req.Date, req.TimeSlots)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, day)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	doctorID := auth.AccountIDFromContext(c.Request().Context())
	if err := h.svc.Delete(c.Request().Context(), doctorID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "availability entry not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "delete availability failed")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	doctorID := auth.AccountIDFromContext(c.Request().Context())

	items, total, err := h.svc.List(c.Request().Context(), doctorID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "list availability failed")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
