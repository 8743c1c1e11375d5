package handlers

import (
	"location-tracker-service/internal/api/dto"
	"location-tracker-service/internal/coordinate"
	"location-tracker-service/internal/domain"
	"location-tracker-service/internal/services"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

type LocationHandler struct {
	Locations *services.LocationService
}

// Latest returns the newest fix for a phone. With mapSource set, the
// position on that provider's map is included as well.
func (h *LocationHandler) Latest(w http.ResponseWriter, r *http.Request) {
	var req dto.LocationQueryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.MapSource) == "" {
		loc, err := h.Locations.Latest(r.Context(), req.Phone)
		if err != nil {
			writeServiceError(w, r, "latest location", err)
			return
		}
		writeJSON(w, r, http.StatusOK, dto.LatestLocationResponse{Success: true, Location: locationResponse(loc)})
		return
	}

	source, _ := coordinate.ParseMapSource(req.MapSource)
	view, err := h.Locations.LatestFor(r.Context(), req.Phone, source)
	if err != nil {
		writeServiceError(w, r, "latest location", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.LatestLocationResponse{
		Success:  true,
		Location: locationResponse(view.Location),
		Display: &dto.DisplayPosition{
			MapSource: string(view.Source),
			System:    view.System.String(),
			Longitude: view.Display.Lng,
			Latitude:  view.Display.Lat,
		},
	})
}

// Save stores a fix. A caller with a session may only report for itself.
func (h *LocationHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req dto.SaveLocationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if claims, ok := ClaimsFromContext(r.Context()); ok && claims.UserID != req.UserID {
		writeServiceError(w, r, "save location", services.ErrForeignUser)
		return
	}

	loc, err := h.Locations.Save(r.Context(), services.SaveLocationRequest{
		UserID:    req.UserID,
		Phone:     req.Phone,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Accuracy:  req.Accuracy,
	})
	if err != nil {
		writeServiceError(w, r, "save location", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.SaveLocationResponse{
		Success:    true,
		Message:    "location saved",
		LocationID: loc.ID,
	})
}

// Track serves a user's recent path as GeoJSON.
func (h *LocationHandler) Track(w http.ResponseWriter, r *http.Request) {
	phone := chi.URLParam(r, "phone")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	source, _ := coordinate.ParseMapSource(r.URL.Query().Get("mapSource"))
	if source == "" {
		source = coordinate.OSM
	}

	tr, err := h.Locations.Track(r.Context(), phone, limit, source)
	if err != nil {
		writeServiceError(w, r, "track", err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.TrackResponse{
		Success:      true,
		Phone:        tr.Phone,
		MapSource:    string(tr.Source),
		System:       tr.Source.System().String(),
		Points:       tr.Points,
		LengthMeters: tr.LengthMeters,
		Track:        tr.Features,
	})
}

// Recent is a debugging view of the newest fixes across all users.
func (h *LocationHandler) Recent(w http.ResponseWriter, r *http.Request) {
	locs, err := h.Locations.Recent(r.Context(), services.DefaultRecentLimit)
	if err != nil {
		writeServiceError(w, r, "recent locations", err)
		return
	}

	res := dto.ListLocationsResponse{Success: true, Count: len(locs), Locations: make([]dto.LocationResponse, 0, len(locs))}
	for _, l := range locs {
		res.Locations = append(res.Locations, locationResponse(l))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func locationResponse(l *domain.Location) dto.LocationResponse {
	return dto.LocationResponse{
		ID:        l.ID,
		UserID:    l.UserID,
		Phone:     l.Phone,
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		Accuracy:  l.Accuracy,
		Timestamp: l.Timestamp,
	}
}
