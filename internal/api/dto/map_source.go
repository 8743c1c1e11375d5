package dto

type MapSourceResponse struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	URLTemplate string   `json:"urlTemplate"`
	Subdomains  []string `json:"subdomains"`
	Attribution string   `json:"attribution"`
	MaxZoom     int      `json:"maxZoom"`
	System      string   `json:"system"`
}

type ListMapSourcesResponse struct {
	Success bool                `json:"success"`
	Sources []MapSourceResponse `json:"sources"`
}

type ProbeResultResponse struct {
	Source     string `json:"source"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

type ProbeResponse struct {
	Success   bool                  `json:"success"`
	Available int                   `json:"available"`
	Results   []ProbeResultResponse `json:"results"`
}
