package qdrant

import (
	"github.com/kailas-cloud/vecingest/internal/domain"
)

// Wire shapes for the Qdrant REST API.

type collectionsResponse struct {
	Result struct {
		Collections []struct {
			Name string `json:"name"`
		} `json:"collections"`
	} `json:"result"`
	Status string `json:"status"`
}

type createCollectionRequest struct {
	Vectors vectorParams `json:"vectors"`
}

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type upsertRequest struct {
	Points []pointStruct `json:"points"`
}

type pointStruct struct {
	ID      string                  `json:"id"`
	Vector  []float32               `json:"vector"`
	Payload map[string]domain.Value `json:"payload,omitempty"`
}

func toPointStructs(points []domain.Point) []pointStruct {
	out := make([]pointStruct, len(points))
	for i, p := range points {
		out[i] = pointStruct{ID: p.ID, Vector: p.Vector, Payload: p.Payload}
	}
	return out
}
