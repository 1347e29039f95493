package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/heartspace/web-gateway/internal/core/domain"
	"github.com/heartspace/web-gateway/internal/core/ports"
)

const dateLayout = "2006-01-02"

// CatalogHandler serves consultant discovery and the profile page.
type CatalogHandler struct {
	service ports.CatalogService
	now     func() time.Time
}

func NewCatalogHandler(service ports.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service, now: time.Now}
}

type consultantQuery struct {
	Search    string `query:"search"`
	Specialty string `query:"specialty"`
	Page      int    `query:"page"     validate:"gte=0"`
	PageSize  int    `query:"pageSize" validate:"gte=0,lte=100"`
}

type scheduleQuery struct {
	Date string `query:"date" validate:"omitempty,datetime=2006-01-02"`
}

// Consultants lists consultants matching the filters.
//
// @Summary      Browse consultants
// @Tags         consultants
// @Produce      json
// @Param        search     query     string  false  "Free-text search"
// @Param        specialty  query     string  false  "Specialty"
// @Param        page       query     int     false  "Page"
// @Param        pageSize   query     int     false  "Page size"
// @Success      200        {object}  domain.Envelope[[]domain.Consultant]
// @Router       /api/consultants [get]
func (h *CatalogHandler) Consultants(c echo.Context) error {
	var q consultantQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}
	return respond(c, h.service.Consultants(c.Request().Context(), session(c), domain.ConsultantFilter{
		Search:    q.Search,
		Specialty: q.Specialty,
		Page:      q.Page,
		PageSize:  q.PageSize,
	}))
}

// Consultant returns one consultant.
//
// @Summary      Consultant detail
// @Tags         consultants
// @Produce      json
// @Param        id   path      string  true  "Consultant id"
// @Success      200  {object}  domain.Envelope[domain.Consultant]
// @Failure      404  {object}  domain.Envelope[any]
// @Router       /api/consultants/{id} [get]
func (h *CatalogHandler) Consultant(c echo.Context) error {
	return respond(c, h.service.ConsultantByID(c.Request().Context(), session(c), c.Param("id")))
}

// Schedules lists a consultant's slots for a day, today when no date is given.
//
// @Summary      Consultant schedule
// @Tags         consultants
// @Produce      json
// @Param        id    path      string  true   "Consultant id"
// @Param        date  query     string  false  "Day (YYYY-MM-DD)"
// @Success      200   {object}  domain.Envelope[[]domain.ScheduleSlot]
// @Failure      422   {object}  domain.Envelope[any]
// @Router       /api/consultants/{id}/schedules [get]
func (h *CatalogHandler) Schedules(c echo.Context) error {
	var q scheduleQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}
	day := h.now().UTC()
	if q.Date != "" {
		parsed, err := time.Parse(dateLayout, q.Date)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
		}
		day = parsed
	}
	return respond(c, h.service.Schedules(c.Request().Context(), session(c), c.Param("id"), day))
}

// Profile returns the signed-in caller's profile.
//
// @Summary      My profile
// @Tags         profile
// @Produce      json
// @Success      200  {object}  domain.Envelope[domain.User]
// @Failure      401  {object}  domain.Envelope[any]
// @Router       /api/profile [get]
func (h *CatalogHandler) Profile(c echo.Context) error {
	return respond(c, h.service.Profile(c.Request().Context(), session(c)))
}
