package domain

// LayerID identifies an operational layer of the city
type LayerID string

const (
	LayerTrafego    LayerID = "trafego"
	LayerSeguranca  LayerID = "seguranca"
	LayerEnergia    LayerID = "energia"
	LayerIluminacao LayerID = "iluminacao"
	LayerResiduos   LayerID = "residuos"
	LayerAr         LayerID = "ar"
)

// Layer pairs a layer ID with its display label
type Layer struct {
	ID    LayerID `json:"id"`
	Label string  `json:"label"`
}

// Layers lists every layer in display order
var Layers = []Layer{
	{ID: LayerTrafego, Label: "Trafego"},
	{ID: LayerSeguranca, Label: "Seguranca"},
	{ID: LayerEnergia, Label: "Energia"},
	{ID: LayerIluminacao, Label: "Iluminacao"},
	{ID: LayerResiduos, Label: "Residuos"},
	{ID: LayerAr, Label: "Ar"},
}

// AllLayerIDs returns the IDs of every layer in display order
func AllLayerIDs() []LayerID {
	ids := make([]LayerID, len(Layers))
	for i, l := range Layers {
		ids[i] = l.ID
	}
	return ids
}

// IsValid reports whether the layer is known
func (l LayerID) IsValid() bool {
	for _, item := range Layers {
		if item.ID == l {
			return true
		}
	}
	return false
}

// Label returns the display label, falling back to the raw ID
func (l LayerID) Label() string {
	for _, item := range Layers {
		if item.ID == l {
			return item.Label
		}
	}
	return string(l)
}

// ContainsLayer reports whether layers includes l
func ContainsLayer(layers []LayerID, l LayerID) bool {
	for _, item := range layers {
		if item == l {
			return true
		}
	}
	return false
}
