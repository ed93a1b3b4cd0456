package detector

import (
	"encoding/json"
	"fmt"
)

// jsonObservation is the wire format written by the perception service,
// one JSON object per line.
type jsonObservation struct {
	Face  *jsonFace  `json:"face"`
	Hands []jsonHand `json:"hands"`
	Error string     `json:"error,omitempty"`
}

type jsonFace struct {
	Points []jsonPoint `json:"points"`
}

// jsonHand represents the JSON structure from the Python service.
type jsonHand struct {
	Points     []jsonPoint `json:"points"`
	Handedness string      `json:"handedness"`
	Score      float64     `json:"score"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ParseObservation decodes one perception response. Landmark sets whose size
// or values do not match the expected topology are rejected with a
// *MalformedInputError.
func ParseObservation(data []byte) (*Observation, error) {
	var raw jsonObservation
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if raw.Error != "" {
		return nil, fmt.Errorf("perception service: %s", raw.Error)
	}

	obs := &Observation{}

	if raw.Face != nil {
		face, err := raw.Face.toFaceLandmarks()
		if err != nil {
			return nil, err
		}
		obs.Face = face
	}

	if len(raw.Hands) > 0 {
		obs.Hands = make([]HandLandmarks, len(raw.Hands))
		for i, h := range raw.Hands {
			lm, err := h.toHandLandmarks(i)
			if err != nil {
				return nil, err
			}
			obs.Hands[i] = lm
		}
	}

	return obs, nil
}

func (f *jsonFace) toFaceLandmarks() (*FaceLandmarks, error) {
	if len(f.Points) != NumFaceLandmarks {
		return nil, &MalformedInputError{
			Set:    "face",
			Index:  -1,
			Reason: fmt.Sprintf("expected %d points, got %d", NumFaceLandmarks, len(f.Points)),
		}
	}

	face := &FaceLandmarks{}
	for i, p := range f.Points {
		pt := Point3D{X: p.X, Y: p.Y, Z: p.Z}
		if !pt.IsFinite() {
			return nil, &MalformedInputError{Set: "face", Index: i, Reason: "non-finite coordinate"}
		}
		face.Points[i] = pt
	}
	return face, nil
}

func (h jsonHand) toHandLandmarks(slot int) (HandLandmarks, error) {
	set := fmt.Sprintf("hand[%d]", slot)
	if len(h.Points) != NumLandmarks {
		return HandLandmarks{}, &MalformedInputError{
			Set:    set,
			Index:  -1,
			Reason: fmt.Sprintf("expected %d points, got %d", NumLandmarks, len(h.Points)),
		}
	}

	lm := HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}
	for i, p := range h.Points {
		pt := Point3D{X: p.X, Y: p.Y, Z: p.Z}
		if !pt.IsFinite() {
			return HandLandmarks{}, &MalformedInputError{Set: set, Index: i, Reason: "non-finite coordinate"}
		}
		lm.Points[i] = pt
	}
	return lm, nil
}
