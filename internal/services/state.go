package services

import (
	"explorer/internal/controller"
	"explorer/types"
)

type StateSnapshot struct {
	ZDim     int
	Controls []controller.ControlState
	Pending  *controller.PendingEdit
}

func (s StateSnapshot) Response() types.StateResponse {
	out := types.StateResponse{
		ZDim:     s.ZDim,
		Controls: make([]types.ControlResponse, 0, len(s.Controls)),
	}
	for _, c := range s.Controls {
		out.Controls = append(out.Controls, controlResponse(c))
	}
	if s.Pending != nil {
		out.Pending = &types.PendingEditResponse{Index: s.Pending.Index, Value: s.Pending.Value}
	}
	return out
}

func controlResponse(c controller.ControlState) types.ControlResponse {
	return types.ControlResponse{ID: c.ID, Index: c.Index, Value: c.Value}
}
