package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yourusername/pitch-edge/internal/models"
	"github.com/yourusername/pitch-edge/internal/normalize"
)

// MemoryGateway is a complete in-memory implementation of every store
// port. It mirrors the PostgreSQL semantics (normalized lookups,
// substring fallback, symmetric friction, idempotent decision writes)
// and backs unit tests and paper runs.
type MemoryGateway struct {
	mu       sync.RWMutex
	mapper   *normalize.Mapper
	profiles map[string]*models.TeamProfileRecord
	xg       map[string]*models.XGAggregateRecord
	markets  map[string][]*models.MarketProfileRecord
	standing map[string]*models.StandingsRecord
	friction map[string]*models.MatchupFriction
	odds     map[string][]*models.OddsSnapshot
	state    *models.PortfolioState
	preds    map[uuid.UUID]*models.MarketPrediction
	decs     map[string]*models.Decision
	decOrder []string
}

// NewMemoryGateway creates an empty in-memory gateway
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		mapper:   normalize.NewMapper(nil),
		profiles: make(map[string]*models.TeamProfileRecord),
		xg:       make(map[string]*models.XGAggregateRecord),
		markets:  make(map[string][]*models.MarketProfileRecord),
		standing: make(map[string]*models.StandingsRecord),
		friction: make(map[string]*models.MatchupFriction),
		odds:     make(map[string][]*models.OddsSnapshot),
		state: &models.PortfolioState{
			Bankroll:         decimal.NewFromInt(1000),
			ExposureByMarket: make(map[models.Market]float64),
		},
		preds: make(map[uuid.UUID]*models.MarketPrediction),
		decs:  make(map[string]*models.Decision),
	}
}

// Gateway returns the port bundle backed by this store
func (m *MemoryGateway) Gateway() *Gateway {
	return &Gateway{
		TeamProfiles: m,
		Friction:     m,
		Odds:         m,
		Portfolio:    m,
		Predictions:  m,
		Decisions:    m,
	}
}

func (m *MemoryGateway) teamKey(key models.TeamKey) string {
	return m.mapper.Resolve(key.Name) + "|" + key.League + "|" + key.Season
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// SeedTeam stores every per-team record in one call
func (m *MemoryGateway) SeedTeam(key models.TeamKey, profile *models.TeamProfileRecord,
	xg *models.XGAggregateRecord, markets []*models.MarketProfileRecord, standings *models.StandingsRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := m.teamKey(key)
	if profile != nil {
		profile.Key = models.TeamKey{Name: m.mapper.Resolve(key.Name), League: key.League, Season: key.Season}
		m.profiles[k] = profile
	}
	if xg != nil {
		m.xg[k] = xg
	}
	if markets != nil {
		m.markets[k] = markets
	}
	if standings != nil {
		m.standing[k] = standings
	}
}

// SeedFriction stores a symmetric friction record
func (m *MemoryGateway) SeedFriction(f *models.MatchupFriction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.friction[pairKey(m.mapper.Resolve(f.TeamA), m.mapper.Resolve(f.TeamB))] = f
}

// SeedOdds appends snapshots for a match/market series
func (m *MemoryGateway) SeedOdds(snapshots ...*models.OddsSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range snapshots {
		k := s.MatchID + "|" + string(s.Market)
		m.odds[k] = append(m.odds[k], s)
		sort.Slice(m.odds[k], func(i, j int) bool {
			return m.odds[k][i].TakenAt.Before(m.odds[k][j].TakenAt)
		})
	}
}

// SetPortfolio replaces the portfolio state
func (m *MemoryGateway) SetPortfolio(state *models.PortfolioState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
}

// GetProfile implements TeamProfileRepository
func (m *MemoryGateway) GetProfile(_ context.Context, key models.TeamKey) (*models.TeamProfileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if rec, ok := m.profiles[m.teamKey(key)]; ok {
		return rec, nil
	}

	// Substring fallback, highest-similarity candidate above the fuzzy
	// threshold only; a loose containment hit is not an identity match.
	canonical := m.mapper.Resolve(key.Name)
	var names []string
	for k := range m.profiles {
		names = append(names, k)
	}
	sort.Strings(names)
	var best *models.TeamProfileRecord
	var bestScore float64
	for _, k := range names {
		rec := m.profiles[k]
		if rec.Key.League != key.League || rec.Key.Season != key.Season ||
			!strings.Contains(rec.Key.Name, canonical) {
			continue
		}
		if score := normalize.Similarity(rec.Key.Name, canonical); score > bestScore {
			best, bestScore = rec, score
		}
	}
	if best != nil && bestScore >= normalize.FuzzyThreshold {
		return best, nil
	}
	return nil, fmt.Errorf("%q: %w", key.Name, models.ErrTeamNotFound)
}

// GetXGAggregates implements TeamProfileRepository
func (m *MemoryGateway) GetXGAggregates(_ context.Context, key models.TeamKey) (*models.XGAggregateRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rec, ok := m.xg[m.teamKey(key)]; ok {
		return rec, nil
	}
	return nil, models.ErrNotFound
}

// GetMarketProfiles implements TeamProfileRepository
func (m *MemoryGateway) GetMarketProfiles(_ context.Context, key models.TeamKey) ([]*models.MarketProfileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.markets[m.teamKey(key)], nil
}

// GetStandings implements TeamProfileRepository
func (m *MemoryGateway) GetStandings(_ context.Context, key models.TeamKey) (*models.StandingsRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rec, ok := m.standing[m.teamKey(key)]; ok {
		return rec, nil
	}
	return nil, models.ErrNotFound
}

// GetMatchupFriction implements FrictionRepository
func (m *MemoryGateway) GetMatchupFriction(_ context.Context, teamA, teamB string) (*models.MatchupFriction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if f, ok := m.friction[pairKey(m.mapper.Resolve(teamA), m.mapper.Resolve(teamB))]; ok {
		return f, nil
	}
	return nil, models.ErrNotFound
}

// GetOddsSeries implements OddsRepository
func (m *MemoryGateway) GetOddsSeries(_ context.Context, matchID string, market models.Market) ([]*models.OddsSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	series := m.odds[matchID+"|"+string(market)]
	out := make([]*models.OddsSnapshot, len(series))
	copy(out, series)
	return out, nil
}

// GetPortfolioState implements PortfolioRepository
func (m *MemoryGateway) GetPortfolioState(_ context.Context) (*models.PortfolioState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state, nil
}

// Create implements PredictionRepository
func (m *MemoryGateway) Create(_ context.Context, p *models.MarketPrediction) (*models.MarketPrediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.preds[p.ID]; exists {
		return nil, fmt.Errorf("prediction %s: %w", p.ID, models.ErrDuplicateKey)
	}
	m.preds[p.ID] = p
	return p, nil
}

// List implements PredictionRepository
func (m *MemoryGateway) List(_ context.Context, filters models.PredictionFilters, limit, offset int) ([]*models.MarketPrediction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}

	var all []*models.MarketPrediction
	for _, p := range m.preds {
		if filters.MatchID != "" && p.MatchID != filters.MatchID {
			continue
		}
		if filters.Market != "" && p.Market != filters.Market {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ComputedAt.After(all[j].ComputedAt) })

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// Update implements PredictionRepository
func (m *MemoryGateway) Update(_ context.Context, id uuid.UUID, patch models.PredictionPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.preds[id]
	if !ok {
		return fmt.Errorf("prediction %s: %w", id, models.ErrNotFound)
	}
	if patch.Probability != nil {
		p.Probability = *patch.Probability
		p.FairOdds = 1.0 / *patch.Probability
	}
	if patch.ConfidenceScore != nil {
		p.ConfidenceScore = *patch.ConfidenceScore
	}
	if patch.DataQuality != nil {
		p.DataQuality = *patch.DataQuality
	}
	if patch.WarningFlags != nil {
		p.WarningFlags = patch.WarningFlags
	}
	if patch.ExpiresAt != nil {
		p.ExpiresAt = *patch.ExpiresAt
	}
	return nil
}

// Delete implements PredictionRepository
func (m *MemoryGateway) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.preds[id]; !ok {
		return false, nil
	}
	delete(m.preds, id)
	return true, nil
}

func decisionKey(d *models.Decision) string {
	return d.MatchID + "|" + string(d.Market) + "|" + d.PipelineRunID
}

// WriteDecision implements DecisionRepository
func (m *MemoryGateway) WriteDecision(_ context.Context, d *models.Decision) (*models.Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeLocked(d), nil
}

// WriteDecisionBatch implements DecisionRepository
func (m *MemoryGateway) WriteDecisionBatch(_ context.Context, decisions []*models.Decision) ([]*models.Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Decision, 0, len(decisions))
	for _, d := range decisions {
		out = append(out, m.writeLocked(d))
	}
	return out, nil
}

func (m *MemoryGateway) writeLocked(d *models.Decision) *models.Decision {
	k := decisionKey(d)
	if existing, ok := m.decs[k]; ok {
		return existing
	}
	m.decs[k] = d
	m.decOrder = append(m.decOrder, k)
	return d
}

// ListByMatch implements DecisionRepository
func (m *MemoryGateway) ListByMatch(_ context.Context, matchID string) ([]*models.Decision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Decision
	for _, k := range m.decOrder {
		if d := m.decs[k]; d.MatchID == matchID {
			out = append(out, d)
		}
	}
	return out, nil
}

// ListRecent implements DecisionRepository
func (m *MemoryGateway) ListRecent(_ context.Context, limit int) ([]*models.Decision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		limit = 20
	}
	var out []*models.Decision
	for i := len(m.decOrder) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.decs[m.decOrder[i]])
	}
	return out, nil
}

// DecisionCount reports stored decisions, used by idempotency tests
func (m *MemoryGateway) DecisionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.decs)
}
