package ensemble

import (
	"fmt"

	"github.com/yourusername/pitch-edge/internal/config"
	"github.com/yourusername/pitch-edge/internal/models"
)

// ConsensusGrade buckets committee conviction by positive vote count
type ConsensusGrade string

const (
	ConsensusMaximum  ConsensusGrade = "MAXIMUM"
	ConsensusStrong   ConsensusGrade = "STRONG"
	ConsensusModerate ConsensusGrade = "MODERATE"
	ConsensusNone     ConsensusGrade = "NONE"
)

// ConsensusResult is the per-market committee tally
type ConsensusResult struct {
	Market        models.Market  `json:"market"`
	PositiveVotes int            `json:"positive_votes"`
	TotalVotes    int            `json:"total_votes"`
	WeightedMass  float64        `json:"weighted_mass"`
	Grade         ConsensusGrade `json:"grade"`
	Multiplier    float64        `json:"multiplier"`
	Passed        bool           `json:"passed"`
	Detail        string         `json:"detail"`
}

// ConsensusEngine tallies votes against the market line. It reads the
// raw votes, never the fused probabilities: fusion can amplify one loud
// model, a tally cannot.
type ConsensusEngine struct {
	cfg     config.ConsensusConfig
	weights map[string]float64
}

func NewConsensusEngine(cfg config.ConsensusConfig, weights map[string]float64) *ConsensusEngine {
	return &ConsensusEngine{cfg: cfg, weights: weights}
}

// Evaluate tallies the committee on one market against its implied
// market probability.
func (c *ConsensusEngine) Evaluate(votes []*models.ModelVote, market models.Market, impliedProb float64) ConsensusResult {
	res := ConsensusResult{Market: market}

	var totalWeight, positiveWeight float64
	for _, v := range votes {
		if v == nil {
			continue
		}
		w := c.weights[v.ModelName]
		totalWeight += w

		p, ok := v.Probability(market)
		if !ok {
			continue
		}
		res.TotalVotes++
		if p > impliedProb {
			res.PositiveVotes++
			positiveWeight += w
		}
	}
	if totalWeight > 0 {
		res.WeightedMass = positiveWeight / totalWeight
	}

	res.Passed = res.PositiveVotes >= c.cfg.MinPositiveVotes && res.WeightedMass >= c.cfg.MinWeightedMass
	res.Grade, res.Multiplier = gradeVotes(res.PositiveVotes, res.Passed)
	if res.Grade == ConsensusNone {
		res.Passed = false
	}
	res.Detail = fmt.Sprintf("%d/%d positive, weighted mass %.2f", res.PositiveVotes, res.TotalVotes, res.WeightedMass)
	return res
}

// gradeVotes maps the positive tally to a stake multiplier. Anything
// under four positives never sizes a bet regardless of threshold config.
func gradeVotes(positive int, passed bool) (ConsensusGrade, float64) {
	if !passed {
		return ConsensusNone, 0
	}
	switch {
	case positive >= 6:
		return ConsensusMaximum, 1.30
	case positive == 5:
		return ConsensusStrong, 1.15
	case positive == 4:
		return ConsensusModerate, 1.00
	default:
		return ConsensusNone, 0
	}
}
