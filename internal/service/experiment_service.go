package service

import (
	"hash/fnv"
	"time"

	"ai-filesearch-be/internal/dto"
	"ai-filesearch-be/pkg/analytics"

	"github.com/patrickmn/go-cache"
)

// experiments maps experiment name to its variant arms. Assignment is
// deterministic per device so a visitor sees the same arm across requests
// without any assignment storage.
var experiments = map[string][]string{
	"homepage-hero":   {"control", "treatment"},
	"checkout-button": {"control", "variant-a", "variant-b"},
}

var defaultVariants = []string{"control", "treatment"}

type IExperimentService interface {
	Variant(deviceId, experiment string) *dto.VariantResponse
	Exposure(deviceId, experiment, variant string)
}

type experimentService struct {
	tracker     analytics.ITracker
	assignments *cache.Cache
}

func NewExperimentService(tracker analytics.ITracker) IExperimentService {
	return &experimentService{
		tracker:     tracker,
		assignments: cache.New(12*time.Hour, 1*time.Hour),
	}
}

func (s *experimentService) Variant(deviceId, experiment string) *dto.VariantResponse {
	cacheKey := experiment + ":" + deviceId
	if cached, found := s.assignments.Get(cacheKey); found {
		return cached.(*dto.VariantResponse)
	}

	variants, ok := experiments[experiment]
	if !ok {
		variants = defaultVariants
	}

	h := fnv.New32a()
	h.Write([]byte(deviceId + ":" + experiment))
	variant := variants[int(h.Sum32())%len(variants)]

	res := &dto.VariantResponse{
		Experiment: experiment,
		Variant:    variant,
		DeviceId:   deviceId,
	}
	s.assignments.Set(cacheKey, res, cache.DefaultExpiration)
	return res
}

func (s *experimentService) Exposure(deviceId, experiment, variant string) {
	s.tracker.Track("Experiment Exposure", map[string]interface{}{
		"experiment": experiment,
		"variant":    variant,
		"device_id":  deviceId,
	})
}
