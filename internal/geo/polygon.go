package geo

import (
	"encoding/json"
	"fmt"
)

// Boundary is a parsed ward boundary: one or more polygons, each a set of
// rings. Ring coordinates follow GeoJSON convention, [longitude, latitude].
type Boundary struct {
	polygons [][][][2]float64
}

type geoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// ParseBoundary decodes a GeoJSON geometry of type Polygon or MultiPolygon.
func ParseBoundary(raw []byte) (*Boundary, error) {
	var geom geoJSONGeometry
	if err := json.Unmarshal(raw, &geom); err != nil {
		return nil, fmt.Errorf("parse boundary: %w", err)
	}

	switch geom.Type {
	case "Polygon":
		var rings [][][2]float64
		if err := json.Unmarshal(geom.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("parse polygon coordinates: %w", err)
		}
		return &Boundary{polygons: [][][][2]float64{rings}}, nil
	case "MultiPolygon":
		var polygons [][][][2]float64
		if err := json.Unmarshal(geom.Coordinates, &polygons); err != nil {
			return nil, fmt.Errorf("parse multipolygon coordinates: %w", err)
		}
		return &Boundary{polygons: polygons}, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", geom.Type)
	}
}

// Contains reports whether the point lies inside the boundary. The first ring
// of each polygon is the outer ring; subsequent rings are holes.
func (b *Boundary) Contains(lat, lon float64) bool {
	for _, rings := range b.polygons {
		if len(rings) == 0 {
			continue
		}
		if !ringContains(rings[0], lon, lat) {
			continue
		}
		inHole := false
		for _, hole := range rings[1:] {
			if ringContains(hole, lon, lat) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

// ringContains runs the standard ray-casting test in planar lon/lat space.
func ringContains(ring [][2]float64, x, y float64) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > y) != (yj > y) &&
			x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
