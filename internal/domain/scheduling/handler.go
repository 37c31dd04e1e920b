package scheduling

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/pkg/pagination"
)

// ProfileResolver maps an account to its patient or practitioner profile.
// Implemented over the identity service, wired in main.
type ProfileResolver interface {
	PatientProfileID(ctx context.Context, accountID uuid.UUID) (uuid.UUID, error)
	PractitionerProfileID(ctx context.Context, accountID uuid.UUID) (uuid.UUID, error)
}

type Handler struct {
	svc      *Service
	profiles ProfileResolver
}

func NewHandler(svc *Service, profiles ProfileResolver) *Handler {
	return &Handler{svc: svc, profiles: profiles}
}

func (h *Handler) RegisterRoutes(api *echo.Group, public *echo.Group) {
	public.GET("/public/doctors/:id/slots", h.ListDoctorSlots)

	staff := api.Group("", auth.RequireRole("doctor", "nurse"))
	staff.POST("/slots", h.CreateSlot)
	staff.GET("/slots/:id", h.GetSlot)
	staff.PUT("/slots/:id", h.UpdateSlot)
	staff.DELETE("/slots/:id", h.DeleteSlot)
	staff.GET("/appointments", h.ListAppointments)
	staff.PUT("/appointments/:id", h.UpdateAppointment)
	staff.POST("/appointments/:id/confirm", h.ConfirmAppointment)

	api.POST("/appointments", h.CreateAppointment)
	api.GET("/appointments/mine", h.MyAppointments)
	api.GET("/appointments/:id", h.GetAppointment)
	api.POST("/appointments/:id/cancel", h.CancelAppointment)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.DELETE("/appointments/:id", h.DeleteAppointment)
}

// -- Weekly slots --

func (h *Handler) CreateSlot(c echo.Context) error {
	var w WeeklySlot
	if err := c.Bind(&w); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	// A doctor manages their own schedule; the doctor_id in the body only
	// counts for admins.
	if auth.RoleFromContext(c.Request().Context()) == "doctor" {
		accountID, err := requesterID(c)
		if err != nil {
			return err
		}
		doctorID, err := h.profiles.PractitionerProfileID(c.Request().Context(), accountID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "no practitioner profile for this account")
		}
		w.DoctorID = doctorID
	}
	if err := h.svc.CreateSlot(c.Request().Context(), &w); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, w)
}

func (h *Handler) GetSlot(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	w, err := h.svc.GetSlot(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, w)
}

func (h *Handler) UpdateSlot(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	existing, err := h.svc.GetSlot(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	var w WeeklySlot
	if err := c.Bind(&w); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	w.ID = id
	w.DoctorID = existing.DoctorID
	if err := h.svc.UpdateSlot(c.Request().Context(), &w); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, w)
}

func (h *Handler) DeleteSlot(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteSlot(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListDoctorSlots(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	slots, err := h.svc.ListSlotsByDoctor(c.Request().Context(), doctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, slots)
}

// -- Appointments --

type appointmentRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason"`
	Notes     string    `json:"notes"`
}

func (req *appointmentRequest) toModel() (*Appointment, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	return &Appointment{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		Date:      date,
		Time:      req.Time,
		Status:    req.Status,
		Reason:    req.Reason,
		Notes:     req.Notes,
	}, nil
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var req appointmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := req.toModel()
	if err != nil {
		return err
	}
	// Patients always book for themselves.
	if auth.RoleFromContext(c.Request().Context()) == "patient" {
		accountID, err := requesterID(c)
		if err != nil {
			return err
		}
		patientID, err := h.profiles.PatientProfileID(c.Request().Context(), accountID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "no patient profile for this account")
		}
		a.PatientID = patientID
	}
	if err := h.svc.CreateAppointment(c.Request().Context(), a); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req appointmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := req.toModel()
	if err != nil {
		return err
	}
	a.ID = id
	if err := h.svc.UpdateAppointment(c.Request().Context(), a); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteAppointment(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	pg := pagination.FromContext(c)
	var f AppointmentFilter
	if v := c.QueryParam("doctor_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
		}
		f.DoctorID = id
	}
	if v := c.QueryParam("patient_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		f.PatientID = id
	}
	if v := c.QueryParam("status"); v != "" {
		if !ValidStatus(v) {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
		}
		f.Status = v
	}
	if v := c.QueryParam("date"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		f.Date = &d
	}

	appts, total, err := h.svc.ListAppointments(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, pg.Limit, pg.Offset))
}

// MyAppointments lists the requester's own appointments: bookings for a
// patient, the day's schedule for a practitioner.
func (h *Handler) MyAppointments(c echo.Context) error {
	accountID, err := requesterID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	pg := pagination.FromContext(c)

	var f AppointmentFilter
	switch auth.RoleFromContext(ctx) {
	case "patient":
		patientID, err := h.profiles.PatientProfileID(ctx, accountID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "no patient profile for this account")
		}
		f.PatientID = patientID
	case "doctor", "nurse":
		doctorID, err := h.profiles.PractitionerProfileID(ctx, accountID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "no practitioner profile for this account")
		}
		f.DoctorID = doctorID
	default:
		return echo.NewHTTPError(http.StatusForbidden, "no personal appointment listing for this role")
	}

	appts, total, err := h.svc.ListAppointments(ctx, f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, pg.Limit, pg.Offset))
}

func (h *Handler) ConfirmAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Confirm(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	byPatient := auth.RoleFromContext(c.Request().Context()) == "patient"
	a, err := h.svc.Cancel(c.Request().Context(), id, byPatient)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func requesterID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "missing account identity")
	}
	return id, nil
}

// httpError translates domain errors. The slot conflict carries a
// machine-readable code so clients can tell it apart from other validation
// failures.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrSlotTaken):
		return echo.NewHTTPError(http.StatusBadRequest, map[string]string{
			"code":  "slot_taken",
			"error": err.Error(),
		})
	case errors.Is(err, ErrSlotOverlap):
		return echo.NewHTTPError(http.StatusBadRequest, map[string]string{
			"code":  "slot_overlap",
			"error": err.Error(),
		})
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
