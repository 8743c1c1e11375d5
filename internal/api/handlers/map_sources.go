package handlers

import (
	"location-tracker-service/internal/api/dto"
	"location-tracker-service/internal/services"
	"net/http"
)

type MapSourceHandler struct {
	Tiles *services.TileService
}

func (h *MapSourceHandler) List(w http.ResponseWriter, r *http.Request) {
	srcs := h.Tiles.Sources()

	res := dto.ListMapSourcesResponse{Success: true, Sources: make([]dto.MapSourceResponse, 0, len(srcs))}
	for _, s := range srcs {
		res.Sources = append(res.Sources, dto.MapSourceResponse{
			Key:         string(s.Key),
			Name:        s.Name,
			URLTemplate: s.URLTemplate,
			Subdomains:  s.Subdomains,
			Attribution: s.Attribution,
			MaxZoom:     s.MaxZoom,
			System:      s.System().String(),
		})
	}
	writeJSON(w, r, http.StatusOK, res)
}

// Probe fetches a sample tile from every provider and reports which respond.
func (h *MapSourceHandler) Probe(w http.ResponseWriter, r *http.Request) {
	results := h.Tiles.ProbeAll(r.Context())

	res := dto.ProbeResponse{Success: true, Results: make([]dto.ProbeResultResponse, 0, len(results))}
	for _, pr := range results {
		if pr.Success {
			res.Available++
		}
		res.Results = append(res.Results, dto.ProbeResultResponse{
			Source:     string(pr.Source),
			Name:       pr.Name,
			URL:        pr.URL,
			Success:    pr.Success,
			Error:      pr.Error,
			DurationMs: pr.Duration.Milliseconds(),
		})
	}
	writeJSON(w, r, http.StatusOK, res)
}
