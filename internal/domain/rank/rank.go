// Package rank computes the global outreach rank for a person.
//
// The rank is a pure function of the person's buyer-group role and scoring
// signals: lower rank means the person is engaged earlier in the outreach
// queue. Every missing input defaults to zero, so the calculator never
// fails on incomplete records. There is no incremental path: whenever any
// input changes the whole working set must be recomputed.
package rank

import (
	"math"

	"github.com/adrata/crmops/internal/domain/role"
)

// Default weights. Changing any of these reshuffles every stored rank, so
// overrides are expected only in experiments, never in production runs.
const (
	defaultBaseRank           = 1000
	defaultUnclassifiedOffset = 500
	defaultInfluenceWeight    = 20
	defaultEngagementWeight   = 2
	defaultDataQualityWeight  = 2
	minRank                   = 1
)

// defaultRoleOffsets orders roles by engagement priority. Champions come
// first: they carry deals internally. Unclassified people get a penalty
// instead (see unclassifiedOffset).
var defaultRoleOffsets = map[role.Role]float64{
	role.Champion:    -500,
	role.Introducer:  -400,
	role.Decision:    -300,
	role.Stakeholder: -200,
	role.Blocker:     100,
}

// connection/follower bonus thresholds; only the highest threshold met
// applies, the tiers are not cumulative.
var (
	connectionTiers = []tier{{1000, 100}, {500, 50}, {200, 25}}
	followerTiers   = []tier{{5000, 50}, {1000, 25}, {100, 10}}
)

type tier struct {
	above int
	bonus float64
}

// Inputs carries the scoring signals for one person. Pointer fields mirror
// nullable columns; nil is treated as zero (or, for Role, as unclassified).
type Inputs struct {
	Role                *role.Role
	InfluenceScore      *float64 // 0-100
	EngagementScore     *float64 // 0-100
	LinkedinConnections *int
	LinkedinFollowers   *int
	DataQualityScore    *float64 // 0-100
}

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithBaseRank overrides the starting rank before offsets apply.
func WithBaseRank(base float64) Option {
	return func(c *Calculator) {
		if base > 0 {
			c.baseRank = base
		}
	}
}

// WithRoleOffset overrides the rank offset for a single role.
func WithRoleOffset(r role.Role, offset float64) Option {
	return func(c *Calculator) {
		c.roleOffsets[r] = offset
	}
}

// WithUnclassifiedOffset overrides the penalty applied when no role is set.
func WithUnclassifiedOffset(offset float64) Option {
	return func(c *Calculator) {
		c.unclassifiedOffset = offset
	}
}

// WithInfluenceWeight overrides the influence score multiplier.
func WithInfluenceWeight(w float64) Option {
	return func(c *Calculator) {
		if w >= 0 {
			c.influenceWeight = w
		}
	}
}

// WithEngagementWeight overrides the engagement score multiplier.
func WithEngagementWeight(w float64) Option {
	return func(c *Calculator) {
		if w >= 0 {
			c.engagementWeight = w
		}
	}
}

// WithDataQualityWeight overrides the data quality score multiplier.
func WithDataQualityWeight(w float64) Option {
	return func(c *Calculator) {
		if w >= 0 {
			c.dataQualityWeight = w
		}
	}
}

// Calculator computes global ranks with a fixed set of weights.
type Calculator struct {
	baseRank           float64
	roleOffsets        map[role.Role]float64
	unclassifiedOffset float64
	influenceWeight    float64
	engagementWeight   float64
	dataQualityWeight  float64
}

// NewCalculator creates a Calculator with the documented default weights.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		baseRank:           defaultBaseRank,
		roleOffsets:        make(map[role.Role]float64, len(defaultRoleOffsets)),
		unclassifiedOffset: defaultUnclassifiedOffset,
		influenceWeight:    defaultInfluenceWeight,
		engagementWeight:   defaultEngagementWeight,
		dataQualityWeight:  defaultDataQualityWeight,
	}
	for r, off := range defaultRoleOffsets {
		c.roleOffsets[r] = off
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Compute returns the global rank for the given inputs, clamped to a
// minimum of 1 and rounded to the nearest integer.
func (c *Calculator) Compute(in Inputs) int {
	r := c.baseRank

	if in.Role != nil && in.Role.Valid() {
		r += c.roleOffsets[*in.Role]
	} else {
		r += c.unclassifiedOffset
	}

	r -= floatOrZero(in.InfluenceScore) * c.influenceWeight
	r -= floatOrZero(in.EngagementScore) * c.engagementWeight
	r -= tierBonus(intOrZero(in.LinkedinConnections), connectionTiers)
	r -= tierBonus(intOrZero(in.LinkedinFollowers), followerTiers)
	r -= floatOrZero(in.DataQualityScore) * c.dataQualityWeight

	rank := int(math.Round(r))
	if rank < minRank {
		return minRank
	}
	return rank
}

// tierBonus returns the bonus of the highest threshold exceeded, or 0.
func tierBonus(value int, tiers []tier) float64 {
	for _, t := range tiers {
		if value > t.above {
			return t.bonus
		}
	}
	return 0
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
