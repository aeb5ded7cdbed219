package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/placepicker/internal/core/domain"
)

// placesToGeoJSON converts places to a FeatureCollection of points, keeping order.
func placesToGeoJSON(places []domain.Place) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range places {
		f := geojson.NewFeature(orb.Point{p.Coordinate.Lon, p.Coordinate.Lat})
		f.ID = p.ID
		f.Properties["name"] = p.Name
		f.Properties["image_src"] = p.ImageSrc
		if p.Description != "" {
			f.Properties["description"] = p.Description
		}
		fc.Append(f)
	}
	return fc
}

// PickedGeoJSONHandler returns the picked places as GeoJSON for map clients.
func PickedGeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := placesToGeoJSON(deps.Places.Picked()).MarshalJSON()
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(data)
	}
}
