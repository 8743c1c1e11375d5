package handlers

import (
	"location-tracker-service/internal/api/dto"
	"location-tracker-service/internal/coordinate"
	"net/http"
	"strings"
)

// Convert moves a point between reference systems, either named directly
// or implied by a map source.
func Convert(w http.ResponseWriter, r *http.Request) {
	var req dto.ConvertRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	p := coordinate.GeoPoint{Lng: req.Longitude, Lat: req.Latitude}

	var from, to coordinate.ReferenceSystem
	if strings.TrimSpace(req.MapSource) != "" {
		source, _ := coordinate.ParseMapSource(req.MapSource)
		from, to = coordinate.WGS84, source.System()
		if req.Direction == "from" {
			from, to = to, from
		}
	} else {
		var ok bool
		if from, ok = coordinate.ParseReferenceSystem(req.From); !ok {
			writeError(w, r, http.StatusBadRequest, "from must be one of: WGS-84, GCJ-02, BD-09")
			return
		}
		if to, ok = coordinate.ParseReferenceSystem(req.To); !ok {
			writeError(w, r, http.StatusBadRequest, "to must be one of: WGS-84, GCJ-02, BD-09")
			return
		}
	}

	out := coordinate.Convert(p, from, to)
	writeJSON(w, r, http.StatusOK, dto.ConvertResponse{
		Success:   true,
		Longitude: out.Lng,
		Latitude:  out.Lat,
		From:      from.String(),
		To:        to.String(),
	})
}

// Distance returns the great-circle distance between two points of the same system.
func Distance(w http.ResponseWriter, r *http.Request) {
	var req dto.DistanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m := coordinate.Distance(req.From.Lng, req.From.Lat, req.To.Lng, req.To.Lat)
	writeJSON(w, r, http.StatusOK, dto.DistanceResponse{Success: true, Meters: m})
}
