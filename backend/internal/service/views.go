package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"cybernauts/backend/internal/cache"
	"cybernauts/backend/internal/domain"
	"cybernauts/backend/internal/graph"
	"cybernauts/backend/internal/store"
)

// GraphParams selects a page of the graph view
type GraphParams struct {
	Page               int
	Limit              int
	IncludeConnections bool
}

// Graph returns one page of nodes with their edges. Concurrent cache misses
// for the same page share a single store read, which is detached from the
// cancellation of the caller that started it.
func (s *UserService) Graph(ctx context.Context, p GraphParams) (graph.Graph, error) {
	page, limit := graph.NormalizePage(p.Page, p.Limit, DefaultGraphLimit, MaxGraphLimit)
	key := fmt.Sprintf("graph:%d:%d:%t", page, limit, p.IncludeConnections)

	var cached graph.Graph
	if found, _ := cache.GetJSON(ctx, s.cache, key, &cached); found {
		return cached, nil
	}

	v, err, _ := s.graphLoads.Do(key, func() (interface{}, error) {
		// Shared by every caller waiting on key, so it must not end when the
		// first caller's request does
		ctx := context.WithoutCancel(ctx)

		users, total, err := s.store.List(ctx, store.ListOptions{
			Skip:  graph.Skip(page, limit),
			Limit: limit,
		})
		if err != nil {
			return nil, s.storeErr("list", err)
		}

		g, err := s.assembler.Assemble(ctx, graph.Input{
			Primary:            users,
			Total:              total,
			Page:               page,
			Limit:              limit,
			IncludeConnections: p.IncludeConnections,
			Resolve:            s.store.FindByIDs,
		})
		if err != nil {
			return nil, s.storeErr("resolve", err)
		}

		s.remember(ctx, key, g)
		return g, nil
	})
	if err != nil {
		return graph.Graph{}, err
	}
	return v.(graph.Graph), nil
}

// Stats aggregates the whole store for the dashboard
func (s *UserService) Stats(ctx context.Context) (domain.Stats, error) {
	var cached domain.Stats
	if found, _ := cache.GetJSON(ctx, s.cache, cache.KeyStats, &cached); found {
		return cached, nil
	}

	users, err := s.store.All(ctx)
	if err != nil {
		return domain.Stats{}, s.storeErr("all", err)
	}

	stats := computeStats(users)
	s.metrics.GraphTotals(stats.TotalUsers, stats.TotalConnections)
	s.remember(ctx, cache.KeyStats, stats)
	return stats, nil
}

func computeStats(users []domain.User) domain.Stats {
	stats := domain.Stats{
		TotalUsers: int64(len(users)),
		TopHobbies: []domain.HobbyCount{},
	}
	if len(users) == 0 {
		return stats
	}

	lookup := make(map[string]domain.User, len(users))
	for _, u := range users {
		lookup[u.ID] = u
	}

	var ageSum, friendSum int
	hobbyCounts := make(map[string]int)
	for _, u := range users {
		ageSum += u.Age
		friendSum += len(u.Friends)
		if len(u.Friends) == 0 {
			stats.IsolatedUsers++
		}

		shared := 0
		for _, fid := range u.Friends {
			if f, ok := lookup[fid]; ok {
				shared += graph.SharedHobbies(u.Hobbies, f.Hobbies)
			}
		}
		if graph.Classify(graph.Score(len(u.Friends), shared)) == graph.NodeTypeHigh {
			stats.HighScoreUsers++
		}

		for _, h := range u.Hobbies {
			hobbyCounts[h]++
		}
	}

	n := float64(len(users))
	stats.TotalConnections = int64(friendSum / 2)
	stats.AverageAge = round2(float64(ageSum) / n)
	stats.AverageFriends = round2(float64(friendSum) / n)

	for h, c := range hobbyCounts {
		stats.TopHobbies = append(stats.TopHobbies, domain.HobbyCount{Hobby: h, Count: c})
	}
	sort.Slice(stats.TopHobbies, func(i, j int) bool {
		if stats.TopHobbies[i].Count != stats.TopHobbies[j].Count {
			return stats.TopHobbies[i].Count > stats.TopHobbies[j].Count
		}
		return stats.TopHobbies[i].Hobby < stats.TopHobbies[j].Hobby
	})
	if len(stats.TopHobbies) > TopHobbiesCount {
		stats.TopHobbies = stats.TopHobbies[:TopHobbiesCount]
	}
	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
