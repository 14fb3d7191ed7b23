// Package scoring computes comparable cross-platform engagement scores.
// Likes and comments are min-max normalized within each platform's own
// distribution, so a platform with orders-of-magnitude more traffic is not
// automatically "more engaging"; the composite KPI measures relative
// standing, not raw popularity.
package scoring

import "social-pulse/internal/models"

// Score is the derived per-post engagement score. Scores are pure functions
// of the current record set, recomputed on demand and never persisted as a
// source of truth.
type Score struct {
	DocID       string  `json:"doc_id"`
	Platform    string  `json:"platform"`
	NormLike    float64 `json:"norm_like"`
	NormComment float64 `json:"norm_comment"`
	KPI         float64 `json:"kpi"`
}

// PlatformAggregate is the platform-level KPI mean.
type PlatformAggregate struct {
	Platform   string  `json:"platform"`
	MeanKPI    float64 `json:"mean_kpi"`
	SampleSize int     `json:"sample_size"`
}

// PlatformYearAggregate restricts the platform mean to posts created in one
// calendar year, for longitudinal comparison.
type PlatformYearAggregate struct {
	Platform   string  `json:"platform"`
	Year       int     `json:"year"`
	MeanKPI    float64 `json:"mean_kpi"`
	SampleSize int     `json:"sample_size"`
}

type bounds struct {
	minLikes, maxLikes       int
	minComments, maxComments int
	seen                     bool
}

// ComputeScores derives per-post scores for the given record set. Records
// are grouped by platform; a platform where max == min on a metric
// (single post, or all-equal values) scores 0 on that metric rather than
// dividing by zero.
func ComputeScores(records []models.Record) []Score {
	byPlatform := make(map[string]bounds)
	for _, r := range records {
		b := byPlatform[r.Platform]
		if !b.seen {
			b = bounds{
				minLikes: r.Likes, maxLikes: r.Likes,
				minComments: r.Comments, maxComments: r.Comments,
				seen: true,
			}
		} else {
			if r.Likes < b.minLikes {
				b.minLikes = r.Likes
			}
			if r.Likes > b.maxLikes {
				b.maxLikes = r.Likes
			}
			if r.Comments < b.minComments {
				b.minComments = r.Comments
			}
			if r.Comments > b.maxComments {
				b.maxComments = r.Comments
			}
		}
		byPlatform[r.Platform] = b
	}

	scores := make([]Score, 0, len(records))
	for _, r := range records {
		b := byPlatform[r.Platform]
		s := Score{
			DocID:       r.DocID,
			Platform:    r.Platform,
			NormLike:    minMax(r.Likes, b.minLikes, b.maxLikes),
			NormComment: minMax(r.Comments, b.minComments, b.maxComments),
		}
		s.KPI = (s.NormLike + s.NormComment) / 2
		scores = append(scores, s)
	}
	return scores
}

func minMax(v, lo, hi int) float64 {
	if hi == lo {
		return 0
	}
	return float64(v-lo) / float64(hi-lo)
}

// PlatformAggregates averages the KPI per platform.
func PlatformAggregates(scores []Score) []PlatformAggregate {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	var order []string
	for _, s := range scores {
		if _, ok := counts[s.Platform]; !ok {
			order = append(order, s.Platform)
		}
		sums[s.Platform] += s.KPI
		counts[s.Platform]++
	}

	aggs := make([]PlatformAggregate, 0, len(order))
	for _, p := range order {
		aggs = append(aggs, PlatformAggregate{
			Platform:   p,
			MeanKPI:    sums[p] / float64(counts[p]),
			SampleSize: counts[p],
		})
	}
	return aggs
}

// YearlyAggregates averages the KPI per (platform, year). Normalization
// bounds stay platform-wide so yearly means remain comparable across years;
// only the averaging is restricted to the year's posts.
func YearlyAggregates(records []models.Record) []PlatformYearAggregate {
	scores := ComputeScores(records)
	kpiByDoc := make(map[string]float64, len(scores))
	for _, s := range scores {
		kpiByDoc[s.DocID] = s.KPI
	}

	type key struct {
		platform string
		year     int
	}
	sums := make(map[key]float64)
	counts := make(map[key]int)
	var order []key
	for _, r := range records {
		k := key{platform: r.Platform, year: r.Year()}
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		sums[k] += kpiByDoc[r.DocID]
		counts[k]++
	}

	aggs := make([]PlatformYearAggregate, 0, len(order))
	for _, k := range order {
		aggs = append(aggs, PlatformYearAggregate{
			Platform:   k.platform,
			Year:       k.year,
			MeanKPI:    sums[k] / float64(counts[k]),
			SampleSize: counts[k],
		})
	}
	return aggs
}
