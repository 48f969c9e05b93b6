package dto

type TrackEventRequest struct {
	Event      string                 `json:"event" validate:"required"`
	Properties map[string]interface{} `json:"properties"`
}
