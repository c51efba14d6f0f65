package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/yourusername/pitch-edge/internal/dna"
	"github.com/yourusername/pitch-edge/internal/models"
)

// ComputeRunID derives the deterministic pipeline run identifier from the
// match, the pipeline version and a content hash of the inputs. Rerunning
// on identical inputs yields the same ID, which the decision store uses
// to make writes idempotent; any input change yields a fresh ID and a
// fresh set of decision records.
func ComputeRunID(req *models.MatchRequest, version string, data *dna.MatchData, odds map[models.Market]*models.OddsSnapshot) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|", req.MatchID, version)
	fmt.Fprintf(h, "home:%s@%d|", data.Home.Key.Name, data.Home.LastUpdated.UnixNano())
	fmt.Fprintf(h, "away:%s@%d|", data.Away.Key.Name, data.Away.LastUpdated.UnixNano())
	if data.Friction != nil {
		fmt.Fprintf(h, "fric:%.2f:%.2f|", data.Friction.FrictionScore, data.Friction.ChaosPotential)
	}

	// Odds enter the hash in market order so map iteration cannot change
	// the ID between runs.
	markets := make([]string, 0, len(odds))
	for m := range odds {
		markets = append(markets, string(m))
	}
	sort.Strings(markets)
	for _, m := range markets {
		snap := odds[models.Market(m)]
		fmt.Fprintf(h, "%s:%.4f@%d|", m, snap.Price, snap.TakenAt.UnixNano())
	}

	sum := h.Sum(nil)
	return strings.ToLower(hex.EncodeToString(sum[:16]))
}
