package grpcdir

import (
	"encoding/json"
	"fmt"

	"dolphinretro/lobby"

	"google.golang.org/protobuf/types/known/structpb"
)

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err = json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

func fromStruct(s *structpb.Struct, v any) error {
	b, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

type listRequest struct {
	Filters map[string]string `json:"filters,omitempty"`
}

type listResponse struct {
	Sessions []lobby.Session `json:"sessions"`
}

func decodeListResponse(s *structpb.Struct) ([]lobby.Session, error) {
	var rsp listResponse
	if err := fromStruct(s, &rsp); err != nil {
		return nil, fmt.Errorf("grpcdir: decode sessions: %w", err)
	}
	return rsp.Sessions, nil
}
