package coordinate

import (
	"net/url"
	"strconv"
	"strings"
)

// ReferenceSystem identifies the datum a GeoPoint is expressed in.
type ReferenceSystem int

const (
	WGS84 ReferenceSystem = iota
	GCJ02
	BD09
)

func (r ReferenceSystem) String() string {
	switch r {
	case GCJ02:
		return "GCJ-02"
	case BD09:
		return "BD-09"
	default:
		return "WGS-84"
	}
}

// ParseReferenceSystem accepts "WGS-84", "wgs84", "gcj02", "BD-09" and similar.
func ParseReferenceSystem(s string) (ReferenceSystem, bool) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "")) {
	case "wgs84":
		return WGS84, true
	case "gcj02":
		return GCJ02, true
	case "bd09":
		return BD09, true
	}
	return WGS84, false
}

// MapSource is a tile provider key.
type MapSource string

const (
	Amap     MapSource = "amap"
	Baidu    MapSource = "baidu"
	Tencent  MapSource = "tencent"
	Tianditu MapSource = "tianditu"
	OSM      MapSource = "osm"
)

// Tianditu publishes CGCS2000 tiles, which agree with WGS-84 well below
// display precision, so no offset is applied for it.
var sourceSystems = map[MapSource]ReferenceSystem{
	Amap:     GCJ02,
	Tencent:  GCJ02,
	Baidu:    BD09,
	Tianditu: WGS84,
	OSM:      WGS84,
}

// System returns the reference system the provider's tiles are drawn in.
// Unknown providers are treated as WGS-84.
func (m MapSource) System() ReferenceSystem {
	if sys, ok := sourceSystems[m]; ok {
		return sys
	}
	return WGS84
}

// ParseMapSource normalizes a provider key and reports whether it is known.
func ParseMapSource(s string) (MapSource, bool) {
	m := MapSource(strings.ToLower(strings.TrimSpace(s)))
	_, ok := sourceSystems[m]
	return m, ok
}

// ConvertForMapSource converts a WGS-84 point into the system expected by
// the given provider. Baidu is reached in two stages, through GCJ-02.
func ConvertForMapSource(lng, lat float64, source MapSource) GeoPoint {
	switch source.System() {
	case GCJ02:
		return WGS84ToGCJ02(lng, lat)
	case BD09:
		gcj := WGS84ToGCJ02(lng, lat)
		return GCJ02ToBD09(gcj.Lng, gcj.Lat)
	default:
		return GeoPoint{Lng: lng, Lat: lat}
	}
}

// ConvertFromMapSource converts a point read off the given provider's map
// back to WGS-84.
func ConvertFromMapSource(lng, lat float64, source MapSource) GeoPoint {
	switch source.System() {
	case GCJ02:
		return GCJ02ToWGS84(lng, lat)
	case BD09:
		gcj := BD09ToGCJ02(lng, lat)
		return GCJ02ToWGS84(gcj.Lng, gcj.Lat)
	default:
		return GeoPoint{Lng: lng, Lat: lat}
	}
}

// Convert moves a point between any two reference systems, chaining through
// GCJ-02 when neither end is GCJ-02.
func Convert(p GeoPoint, from, to ReferenceSystem) GeoPoint {
	if from == to {
		return p
	}

	gcj := p
	switch from {
	case WGS84:
		gcj = WGS84ToGCJ02(p.Lng, p.Lat)
	case BD09:
		gcj = BD09ToGCJ02(p.Lng, p.Lat)
	}

	switch to {
	case WGS84:
		return GCJ02ToWGS84(gcj.Lng, gcj.Lat)
	case BD09:
		return GCJ02ToBD09(gcj.Lng, gcj.Lat)
	default:
		return gcj
	}
}

// TileSource describes a provider's tile endpoint.
type TileSource struct {
	Key         MapSource
	Name        string
	URLTemplate string
	Subdomains  []string
	Attribution string
	MaxZoom     int
	// Query parameter carrying an API key, for providers that require one.
	KeyParam string
}

// System is the reference system of the source's tiles.
func (t TileSource) System() ReferenceSystem { return t.Key.System() }

// TileURL fills the template for one tile, using the first subdomain.
func (t TileSource) TileURL(x, y, z int) string {
	sub := ""
	if len(t.Subdomains) > 0 {
		sub = t.Subdomains[0]
	}

	r := strings.NewReplacer(
		"{s}", sub,
		"{x}", strconv.Itoa(x),
		"{y}", strconv.Itoa(y),
		"{z}", strconv.Itoa(z),
	)
	return r.Replace(t.URLTemplate)
}

// WithKey returns a copy whose template carries the given API key. Sources
// without a KeyParam, and empty keys, leave the template unchanged.
func (t TileSource) WithKey(key string) TileSource {
	key = strings.TrimSpace(key)
	if t.KeyParam == "" || key == "" {
		return t
	}
	sep := "?"
	if strings.Contains(t.URLTemplate, "?") {
		sep = "&"
	}
	t.URLTemplate += sep + t.KeyParam + "=" + url.QueryEscape(key)
	return t
}

var catalog = []TileSource{
	{
		Key:         Amap,
		Name:        "高德地图",
		URLTemplate: "https://webrd0{s}.is.autonavi.com/appmaptile?lang=zh_cn&size=1&scale=1&style=8&x={x}&y={y}&z={z}",
		Subdomains:  []string{"1", "2", "3", "4"},
		Attribution: "© 高德地图",
		MaxZoom:     18,
	},
	{
		Key:         Baidu,
		Name:        "百度地图",
		URLTemplate: "https://maponline{s}.bdimg.com/tile/?qt=vtile&x={x}&y={y}&z={z}&styles=pl&scaler=1&udt=20200101",
		Subdomains:  []string{"0", "1", "2", "3"},
		Attribution: "© 百度地图",
		MaxZoom:     18,
	},
	{
		Key:         Tencent,
		Name:        "腾讯地图",
		URLTemplate: "https://rt{s}.map.gtimg.com/tile?z={z}&x={x}&y={y}&type=vector&styleid=3",
		Subdomains:  []string{"0", "1", "2", "3"},
		Attribution: "© 腾讯地图",
		MaxZoom:     18,
	},
	{
		Key:         Tianditu,
		Name:        "天地图",
		URLTemplate: "https://t{s}.tianditu.gov.cn/vec_w/wmts?SERVICE=WMTS&REQUEST=GetTile&VERSION=1.0.0&LAYER=vec&STYLE=default&TILEMATRIXSET=w&FORMAT=tiles&TILEMATRIX={z}&TILEROW={y}&TILECOL={x}",
		Subdomains:  []string{"0", "1", "2", "3", "4", "5", "6", "7"},
		Attribution: "© 天地图",
		MaxZoom:     18,
		KeyParam:    "tk",
	},
	{
		Key:         OSM,
		Name:        "OpenStreetMap",
		URLTemplate: "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Subdomains:  []string{"a", "b", "c"},
		Attribution: "© OpenStreetMap contributors",
		MaxZoom:     18,
	},
}

// Sources returns the tile catalog in a stable order.
func Sources() []TileSource {
	out := make([]TileSource, len(catalog))
	copy(out, catalog)
	return out
}

// SourcesWithKeys returns the catalog with provider API keys applied.
func SourcesWithKeys(keys map[MapSource]string) []TileSource {
	out := Sources()
	for i, src := range out {
		out[i] = src.WithKey(keys[src.Key])
	}
	return out
}

// Info returns the catalog entry for a provider.
func (m MapSource) Info() (TileSource, bool) {
	for _, s := range catalog {
		if s.Key == m {
			return s, true
		}
	}
	return TileSource{}, false
}
