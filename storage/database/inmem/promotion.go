package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/promotion"
	"github.com/trezcool/shule/core/school"
)

type ruleRepository struct {
	db *DB
}

var _ promotion.RuleRepository = (*ruleRepository)(nil) // interface compliance check

func NewRuleRepository(db *DB) *ruleRepository {
	return &ruleRepository{db: db}
}

func (repo *ruleRepository) GetActiveRuleByClassLevel(_ context.Context, level school.ClassLevel, _ ...core.DBExecutor) (promotion.Rule, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, r := range repo.db.rules {
		if r.ClassLevel == level && r.IsActive {
			return *r, nil
		}
	}
	return promotion.Rule{}, promotion.ErrNoActiveRule
}

func (repo *ruleRepository) CreateRule(_ context.Context, rule promotion.Rule, _ ...core.DBExecutor) (promotion.Rule, error) {
	if err := rule.Validate(); err != nil {
		return promotion.Rule{}, err
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	rule.ID = uuid.New().String()
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	repo.db.rules[rule.ID] = &rule
	return rule, nil
}

type decisionRepository struct {
	db *DB
}

var _ promotion.DecisionRepository = (*decisionRepository)(nil) // interface compliance check

func NewDecisionRepository(db *DB) *decisionRepository {
	return &decisionRepository{db: db}
}

func (repo *decisionRepository) CreateDecision(_ context.Context, dec promotion.Decision, _ ...core.DBExecutor) (promotion.Decision, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	dec.ID = uuid.New().String()
	if dec.CreatedAt.IsZero() {
		dec.CreatedAt = time.Now().UTC()
	}
	repo.db.decisions[dec.ID] = &dec
	return dec, nil
}

func (repo *decisionRepository) QueryDecisionsByStudent(_ context.Context, studentID string, _ ...core.DBExecutor) ([]promotion.Decision, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var decs []promotion.Decision
	for _, dec := range repo.db.decisions {
		if dec.StudentID == studentID {
			decs = append(decs, *dec)
		}
	}
	sort.Slice(decs, func(i, j int) bool { return decs[i].CreatedAt.After(decs[j].CreatedAt) })
	return decs, nil
}
