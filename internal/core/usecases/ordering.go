package usecases

import (
	"cmp"
	"slices"

	"github.com/samirrijal/placepicker/internal/core/domain"
	"github.com/samirrijal/placepicker/internal/pkg/geospatial"
)

// Distance returns the great-circle distance in meters between a and b.
func Distance(a, b domain.Coordinate) float64 {
	return geospatial.Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

// OrderByDistance returns a copy of catalog sorted ascending by distance from
// observer. Places at equal distance keep their catalog order. Each returned
// place carries its computed distance; catalog is left untouched.
func OrderByDistance(catalog []domain.Place, observer domain.Coordinate) []domain.Place {
	ranked := make([]domain.Place, len(catalog))
	for i, p := range catalog {
		d := Distance(p.Coordinate, observer)
		p.Distance = &d
		ranked[i] = p
	}

	slices.SortStableFunc(ranked, func(a, b domain.Place) int {
		return cmp.Compare(*a.Distance, *b.Distance)
	})
	return ranked
}

// clonePlaces copies places including their distances, so callers cannot
// write through to a cached ranking.
func clonePlaces(places []domain.Place) []domain.Place {
	out := slices.Clone(places)
	for i := range out {
		if d := out[i].Distance; d != nil {
			v := *d
			out[i].Distance = &v
		}
	}
	return out
}
