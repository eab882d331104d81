package http

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/samirrijal/meteorguard/internal/core/domain"
	"github.com/samirrijal/meteorguard/internal/core/usecases"
	"github.com/samirrijal/meteorguard/internal/pkg/geospatial"
)

// Circle query limits.
const (
	// MaxCircleRadiusMeters is half the equatorial circumference.
	MaxCircleRadiusMeters = 20037508.0
	MaxCircleSteps        = 4096
)

// SimulateHandler runs an impact simulation and returns the assessment.
func SimulateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var params domain.EntryParams
		if err := c.BodyParser(&params); err != nil {
			return errBadRequest(c, "invalid request body: "+err.Error())
		}

		a, err := deps.Impact.Run(c.UserContext(), params)
		if err != nil {
			return respondError(c, err)
		}

		c.Set("Cache-Control", "no-store")
		c.Location("/v1/assessments/" + a.ID)
		return c.Status(fiber.StatusCreated).JSON(a)
	}
}

// ListAssessmentsHandler returns the newest assessments.
func ListAssessmentsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := usecases.RecentLimit(c.QueryInt("limit", usecases.DefaultRecentLimit))

		rows, err := deps.Impact.Recent(c.UserContext(), limit)
		if err != nil {
			return respondError(c, err)
		}

		c.Set("Cache-Control", "public, max-age=10")
		return c.JSON(PaginatedResponse{Data: rows, Pagination: newPagination(limit, len(rows))})
	}
}

// GetAssessmentHandler returns a single assessment by ID.
func GetAssessmentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := assessmentID(c)
		if !ok {
			return errBadRequest(c, "assessment id must be a UUID")
		}

		a, err := deps.Impact.Get(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}

		c.Set("Cache-Control", "public, max-age=3600, immutable")
		return c.JSON(a)
	}
}

// AssessmentOverlayHandler returns only the GeoJSON overlay of an assessment.
func AssessmentOverlayHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := assessmentID(c)
		if !ok {
			return errBadRequest(c, "assessment id must be a UUID")
		}

		a, err := deps.Impact.Get(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}

		overlay := a.Overlay
		if len(overlay) == 0 {
			if overlay, err = json.Marshal(usecases.FeatureCollection(a.Zones)); err != nil {
				return respondError(c, err)
			}
		}

		c.Set("Cache-Control", "public, max-age=3600, immutable")
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(overlay)
	}
}

// NEOSearchHandler lists near-earth objects. An empty body searches with defaults.
func NEOSearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var query domain.NEOSearchQuery
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&query); err != nil {
				return errBadRequest(c, "invalid request body: "+err.Error())
			}
		}

		rows, err := deps.NEO.Search(c.UserContext(), query)
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(fiber.Map{
			"data":  rows,
			"count": len(rows),
		})
	}
}

// NEODetailHandler returns the raw catalogue record for a designation.
func NEODetailHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		des, err := url.PathUnescape(c.Params("des"))
		if err != nil {
			return errBadRequest(c, "invalid designation")
		}

		raw, err := deps.NEO.Detail(c.UserContext(), des)
		if err != nil {
			return respondError(c, err)
		}

		c.Set("Cache-Control", "public, max-age=3600")
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(raw)
	}
}

// CircleHandler returns a geodesic circle as a GeoJSON Feature.
func CircleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, err := requiredFloat(c, "lat")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		lon, err := requiredFloat(c, "lon")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		radius, err := requiredFloat(c, "radius")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		steps := c.QueryInt("steps", geospatial.DefaultCircleSteps)

		center := domain.GeoPoint{Lat: lat, Lon: lon}
		if !geospatial.ValidPoint(center) {
			return errBadRequest(c, "lat must be within [-90, 90] and lon within [-180, 180]")
		}
		if !(radius > 0 && radius <= MaxCircleRadiusMeters) {
			return errBadRequest(c, "radius must be > 0 and <= 20037508 meters")
		}
		if steps > MaxCircleSteps {
			return errBadRequest(c, "steps must be <= 4096")
		}

		ring := geospatial.BuildCircle(center, radius, steps)
		f := geospatial.Feature(ring, map[string]any{
			"radius_m":    radius,
			"steps":       len(ring) - 1,
			"perimeter_m": geospatial.Perimeter(ring),
		})

		c.Set("Cache-Control", "public, max-age=86400")
		return c.JSON(f, "application/geo+json")
	}
}

func assessmentID(c *fiber.Ctx) (string, bool) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func requiredFloat(c *fiber.Ctx, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return v, nil
}
