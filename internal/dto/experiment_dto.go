package dto

type VariantResponse struct {
	Experiment string `json:"experiment"`
	Variant    string `json:"variant"`
	DeviceId   string `json:"device_id"`
}

type ExposureRequest struct {
	Variant string `json:"variant"`
}
