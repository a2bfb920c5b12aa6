package locator

import (
	"context"
	"sort"
	"time"

	"github.com/aegisguard/aegis/internal/cache"
	"github.com/aegisguard/aegis/internal/domain"
	"github.com/google/uuid"
)

// GeoIndex is the geo query surface of the redis cache.
type GeoIndex interface {
	NearbyGuards(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]cache.GuardDistance, error)
}

// GuardDirectory answers derived availability for a candidate set.
type GuardDirectory interface {
	AvailableWithin(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
}

type Policy struct {
	SearchRadiusKm  float64
	MaxCandidates   int
	AverageSpeedKmh float64
}

// Service is the guard locator: a pure query that ranks available guards
// by distance from a service location. It issues no mutations.
type Service struct {
	geo    GeoIndex
	guards GuardDirectory
	policy Policy
}

func NewService(geo GeoIndex, guards GuardDirectory, policy Policy) *Service {
	return &Service{geo: geo, guards: guards, policy: policy}
}

// FindNearby returns candidates within the policy radius ranked by
// ascending distance, ties broken by ascending guard id for determinism.
// Guards holding a non-terminal booking are excluded. Zero results is an
// empty list, not an error.
func (s *Service) FindNearby(ctx context.Context, lat, lng float64) ([]domain.GuardCandidate, error) {
	hits, err := s.geo.NearbyGuards(ctx, lat, lng, s.policy.SearchRadiusKm, s.policy.MaxCandidates)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(hits))
	distances := make(map[uuid.UUID]float64, len(hits))
	for i, hit := range hits {
		ids[i] = hit.GuardID
		distances[hit.GuardID] = hit.DistanceKm
	}

	available, err := s.guards.AvailableWithin(ctx, ids)
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.GuardCandidate, 0, len(available))
	for _, id := range available {
		dist := distances[id]
		candidates = append(candidates, domain.GuardCandidate{
			GuardID:    id,
			DistanceKm: dist,
			ETA:        s.eta(dist),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DistanceKm != candidates[j].DistanceKm {
			return candidates[i].DistanceKm < candidates[j].DistanceKm
		}
		return candidates[i].GuardID.String() < candidates[j].GuardID.String()
	})
	return candidates, nil
}

func (s *Service) eta(distanceKm float64) time.Duration {
	if s.policy.AverageSpeedKmh <= 0 {
		return 0
	}
	hours := distanceKm / s.policy.AverageSpeedKmh
	return time.Duration(hours * float64(time.Hour))
}
