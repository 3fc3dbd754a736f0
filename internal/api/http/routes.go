package httpapi

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/i474232898/weather-proxy/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-proxy",
		})
	})

	app.Get("/wetter", func(c *fiber.Ctx) error {
		req := parseLookupQuery(c).toRequest()

		result, err := service.Fetch(c.UserContext(), req)
		if err != nil {
			return err
		}
		return c.JSON(result)
	})
}

// lookupQuery holds the raw query parameters of the lookup endpoint.
type lookupQuery struct {
	City   string
	Lat    string `validate:"required,latitude"`
	Lon    string `validate:"required,longitude"`
	Fields string
	Lang   string `validate:"omitempty,max=10,excludesall=/?#&"`
}

// Query values alias Fiber's request buffer; the city is copied because it
// outlives the request as a cache key.
func parseLookupQuery(c *fiber.Ctx) lookupQuery {
	return lookupQuery{
		City:   utils.CopyString(strings.TrimSpace(c.Query("city"))),
		Lat:    strings.TrimSpace(c.Query("lat")),
		Lon:    strings.TrimSpace(c.Query("lon")),
		Fields: c.Query("fields"),
		Lang:   strings.TrimSpace(c.Query("lang")),
	}
}

// toRequest builds a lookup request. Coordinates are used only when both are
// present and valid; otherwise the lookup falls back to the city. An invalid
// lang is dropped in favor of the default.
func (q lookupQuery) toRequest() weather.LookupRequest {
	req := weather.LookupRequest{
		City:   q.City,
		Fields: splitFields(q.Fields),
	}

	if validate.StructPartial(q, "Lang") == nil {
		req.Lang = q.Lang
	}

	if validate.StructPartial(q, "Lat", "Lon") == nil {
		lat, latErr := strconv.ParseFloat(q.Lat, 64)
		lon, lonErr := strconv.ParseFloat(q.Lon, 64)
		if latErr == nil && lonErr == nil {
			req.Coordinates = &weather.Coordinates{Lat: lat, Lon: lon}
		}
	}

	return req
}

func splitFields(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			fields = append(fields, p)
		}
	}
	return fields
}
