package appointment

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
	pt := api.Group("/appointments", authMW, auth.RequireRole("patient"))
	pt.GET("", h.ListMine)
	pt.POST("/book", h.Book)
	pt.DELETE("/:id/cancel", h.Cancel)
	pt.PATCH("/:id/reschedule", h.RequestReschedule)

	api.POST("/payment/create-order", h.CreateOrder, authMW, auth.RequireRole("patient"))

	doc := api.Group("/doctor/appointments", authMW, auth.RequireRole("doctor"))
	doc.GET("", h.ListForDoctor)
	doc.PATCH("/:id/reschedule", h.ApproveReschedule)
	doc.PATCH("/:id/complete", h.Complete)

	api.GET("/doctor/revenue", h.Revenue, authMW, auth.RequireRole("doctor"))
}

type createOrderRequest struct {
	DoctorID string `json:"doctorId"`
	Amount   int64  `json:"amount"`
}

func (h *Handler) CreateOrder(c echo.Context) error {
	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctorId")
	}

	patientID := auth.AccountIDFromContext(c.Request().Context())
	order, err := h.svc.CreateOrder(c.Request().Context(), patientID, doctorID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, ErrDoctorNotFound):
			return echo.NewHTTPError(http.StatusNotFound, ErrDoctorNotFound.Error())
		case errors.Is(err, ErrFeeMismatch):
			return echo.NewHTTPError(http.StatusBadRequest, ErrFeeMismatch.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "create order failed")
		}
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *Handler) Book(c echo.Context) error {
	var in BookInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	patientID := auth.AccountIDFromContext(c.Request().Context())
	a, err := h.svc.Book(c.Request().Context(), patientID, in)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, ErrDoctorNotFound.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	patientID := auth.AccountIDFromContext(c.Request().Context())
	a, err := h.svc.Cancel(c.Request().Context(), patientID, id)
	if err != nil {
		if errors.Is(err, ErrCannotCancel) {
			return echo.NewHTTPError(http.StatusNotFound, ErrCannotCancel.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cancel failed")
	}
	return c.JSON(http.StatusOK, a)
}

type rescheduleRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) RequestReschedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	patientID := auth.AccountIDFromContext(c.Request().Context())
	a, err := h.svc.RequestReschedule(c.Request().Context(), patientID, id, req.Reason)
	if err != nil {
		if errors.Is(err, ErrCannotReschedule) {
			return echo.NewHTTPError(http.StatusNotFound, ErrCannotReschedule.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

type approveRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

func (h *Handler) ApproveReschedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req approveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	doctorID := auth.AccountIDFromContext(c.Request().Context())
	a, err := h.svc.ApproveReschedule(c.Request().Context(), doctorID, id, req.Date, req.Time)
	if err != nil {
		if errors.Is(err, ErrCannotReschedule) {
			return echo.NewHTTPError(http.StatusNotFound, ErrCannotReschedule.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

type completeRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) Complete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req completeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	doctorID := auth.AccountIDFromContext(c.Request().Context())
	a, err := h.svc.Complete(c.Request().Context(), doctorID, id, req.Notes)
	if err != nil {
		if errors.Is(err, ErrCannotComplete) {
			return echo.NewHTTPError(http.StatusNotFound, ErrCannotComplete.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "complete failed")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListMine(c echo.Context) error {
	pg := pagination.FromContext(c)
	patientID := auth.AccountIDFromContext(c.Request().Context())

	items, total, err := h.svc.ListForPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "list appointments failed")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListForDoctor(c echo.Context) error {
	pg := pagination.FromContext(c)
	doctorID := auth.AccountIDFromContext(c.Request().Context())

	items, total, err := h.svc.ListForDoctor(c.Request().Context(), doctorID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "list appointments failed")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Revenue(c echo.Context) error {
	pg := pagination.FromContext(c)
	doctorID := auth.AccountIDFromContext(c.Request().Context())

	rev, err := h.svc.RevenueForDoctor(c.Request().Context(), doctorID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "revenue failed")
	}
	return c.JSON(http.StatusOK, rev)
}
