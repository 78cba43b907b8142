package domain

import "strings"

// TargetType selects between region and corridor injection targets
type TargetType string

const (
	TargetRegion   TargetType = "region"
	TargetCorridor TargetType = "corridor"
)

// EntityKind classifies a selectable city entity
type EntityKind string

const (
	EntityRegion   EntityKind = "region"
	EntityCorridor EntityKind = "corridor"
	EntityAsset    EntityKind = "asset"
)

// Region is a rectangular area of the synthetic city
type Region struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	RID  string  `json:"rid"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	W    float64 `json:"w"`
	H    float64 `json:"h"`
}

// Corridor connects two regions
type Corridor struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	RID          string  `json:"rid"`
	FromRegionID string  `json:"from_region_id"`
	ToRegionID   string  `json:"to_region_id"`
	X1           float64 `json:"x1"`
	Y1           float64 `json:"y1"`
	X2           float64 `json:"x2"`
	Y2           float64 `json:"y2"`
}

// Asset is a sensor or device placed on a corridor
type Asset struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	RID        string  `json:"rid"`
	Type       string  `json:"type"`
	RegionID   string  `json:"region_id"`
	CorridorID string  `json:"corridor_id"`
	Layer      LayerID `json:"layer"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

// TargetRef locates an event or incident in the city
type TargetRef struct {
	RID        string `json:"rid"`
	RegionID   string `json:"region_id,omitempty"`
	CorridorID string `json:"corridor_id,omitempty"`
}

// Entity is a resolved, selectable city entity
type Entity struct {
	ID         string     `json:"id"`
	RID        string     `json:"rid"`
	Label      string     `json:"label"`
	Kind       EntityKind `json:"kind"`
	LayerHint  LayerID    `json:"layer_hint,omitempty"`
	RegionID   string     `json:"region_id,omitempty"`
	CorridorID string     `json:"corridor_id,omitempty"`
}

// Regions of the synthetic city
var Regions = []Region{
	{ID: "centro", Name: "Centro", RID: "cityos://region/centro", X: 52, Y: 58, W: 220, H: 146},
	{ID: "norte", Name: "Norte", RID: "cityos://region/norte", X: 330, Y: 24, W: 242, H: 130},
	{ID: "sul", Name: "Sul", RID: "cityos://region/sul", X: 334, Y: 202, W: 220, H: 158},
	{ID: "leste", Name: "Leste", RID: "cityos://region/leste", X: 610, Y: 70, W: 244, H: 214},
}

// Corridors of the synthetic city
var Corridors = []Corridor{
	{ID: "c-01", Name: "Corredor C-01", RID: "cityos://corridor/c-01", FromRegionID: "centro", ToRegionID: "norte", X1: 170, Y1: 130, X2: 420, Y2: 84},
	{ID: "c-02", Name: "Corredor C-02", RID: "cityos://corridor/c-02", FromRegionID: "centro", ToRegionID: "sul", X1: 194, Y1: 164, X2: 420, Y2: 282},
	{ID: "c-03", Name: "Corredor C-03", RID: "cityos://corridor/c-03", FromRegionID: "norte", ToRegionID: "leste", X1: 478, Y1: 80, X2: 716, Y2: 126},
	{ID: "c-04", Name: "Corredor C-04", RID: "cityos://corridor/c-04", FromRegionID: "sul", ToRegionID: "leste", X1: 480, Y1: 284, X2: 716, Y2: 226},
}

// Assets of the synthetic city
var Assets = []Asset{
	{ID: "s-101", Name: "Semaforo adaptativo 101", RID: "cityos://asset/sensor/s-101", Type: "sensor", RegionID: "centro", CorridorID: "c-01", Layer: LayerTrafego, X: 154, Y: 122},
	{ID: "s-115", Name: "Sensor viario 115", RID: "cityos://asset/sensor/s-115", Type: "sensor", RegionID: "centro", CorridorID: "c-02", Layer: LayerTrafego, X: 224, Y: 170},
	{ID: "cam-02", Name: "Camera urbana 02", RID: "cityos://asset/camera/cam-02", Type: "camera", RegionID: "norte", CorridorID: "c-03", Layer: LayerSeguranca, X: 412, Y: 106},
	{ID: "sub-08", Name: "Subestacao 08", RID: "cityos://asset/energia/sub-08", Type: "energia", RegionID: "leste", CorridorID: "c-03", Layer: LayerEnergia, X: 742, Y: 136},
	{ID: "lum-34", Name: "Nodo iluminacao 34", RID: "cityos://asset/luz/lum-34", Type: "luz", RegionID: "leste", CorridorID: "c-04", Layer: LayerIluminacao, X: 690, Y: 246},
	{ID: "res-11", Name: "Coleta inteligente 11", RID: "cityos://asset/residuos/res-11", Type: "residuos", RegionID: "sul", CorridorID: "c-02", Layer: LayerResiduos, X: 392, Y: 296},
	{ID: "ar-22", Name: "Estacao ar 22", RID: "cityos://asset/ar/ar-22", Type: "ar", RegionID: "norte", CorridorID: "c-01", Layer: LayerAr, X: 476, Y: 72},
	{ID: "s-203", Name: "Semaforo adaptativo 203", RID: "cityos://asset/sensor/s-203", Type: "sensor", RegionID: "sul", CorridorID: "c-04", Layer: LayerTrafego, X: 522, Y: 292},
}

// FindRegion returns the region with the given ID
func FindRegion(id string) (Region, bool) {
	for _, r := range Regions {
		if r.ID == id {
			return r, true
		}
	}
	return Region{}, false
}

// FindCorridor returns the corridor with the given ID
func FindCorridor(id string) (Corridor, bool) {
	for _, c := range Corridors {
		if c.ID == id {
			return c, true
		}
	}
	return Corridor{}, false
}

// FirstCorridorFrom returns the ID of the first corridor leaving a region, or ""
func FirstCorridorFrom(regionID string) string {
	for _, c := range Corridors {
		if c.FromRegionID == regionID {
			return c.ID
		}
	}
	return ""
}

// Target returns the reference used when a region is the subject of an event
func (r Region) Target() TargetRef {
	return TargetRef{RID: r.RID, RegionID: r.ID, CorridorID: FirstCorridorFrom(r.ID)}
}

// Target returns the reference used when a corridor is the subject of an event
func (c Corridor) Target() TargetRef {
	return TargetRef{RID: c.RID, RegionID: c.FromRegionID, CorridorID: c.ID}
}

// Target returns the reference used when an asset is the subject of an event
func (a Asset) Target() TargetRef {
	return TargetRef{RID: a.RID, RegionID: a.RegionID, CorridorID: a.CorridorID}
}

// EntityByRID resolves a resource identifier to a region, corridor or asset
func EntityByRID(rid string) (Entity, bool) {
	for _, r := range Regions {
		if r.RID == rid {
			return Entity{ID: r.ID, RID: r.RID, Label: r.Name, Kind: EntityRegion, RegionID: r.ID}, true
		}
	}
	for _, c := range Corridors {
		if c.RID == rid {
			return Entity{ID: c.ID, RID: c.RID, Label: c.Name, Kind: EntityCorridor, RegionID: c.FromRegionID, CorridorID: c.ID}, true
		}
	}
	for _, a := range Assets {
		if a.RID == rid {
			return Entity{ID: a.ID, RID: a.RID, Label: a.Name, Kind: EntityAsset, LayerHint: a.Layer, RegionID: a.RegionID, CorridorID: a.CorridorID}, true
		}
	}
	return Entity{}, false
}

// Scope strings select incidents for playbooks and filters:
// "global", "region:<id>" or "corridor:<id>"
const ScopeGlobal = "global"

// ScopeLabel returns a human readable label for a scope string
func ScopeLabel(scope string) string {
	if scope == ScopeGlobal {
		return "Global"
	}
	if id, ok := strings.CutPrefix(scope, "region:"); ok {
		if r, found := FindRegion(id); found {
			return "Regiao " + r.Name
		}
		return scope
	}
	if id, ok := strings.CutPrefix(scope, "corridor:"); ok {
		if c, found := FindCorridor(id); found {
			return c.Name
		}
		return scope
	}
	return scope
}

// ScopeMatches reports whether a located record falls within scope
func ScopeMatches(scope string, ref TargetRef) bool {
	if scope == ScopeGlobal {
		return true
	}
	if id, ok := strings.CutPrefix(scope, "region:"); ok {
		return ref.RegionID == id
	}
	if id, ok := strings.CutPrefix(scope, "corridor:"); ok {
		return ref.CorridorID == id
	}
	return false
}

// ValidScope reports whether scope names global or a known region/corridor
func ValidScope(scope string) bool {
	if scope == ScopeGlobal {
		return true
	}
	if id, ok := strings.CutPrefix(scope, "region:"); ok {
		_, found := FindRegion(id)
		return found
	}
	if id, ok := strings.CutPrefix(scope, "corridor:"); ok {
		_, found := FindCorridor(id)
		return found
	}
	return false
}
