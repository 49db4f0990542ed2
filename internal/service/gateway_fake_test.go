package service

import (
	"context"
	"fmt"
	"lingo_edu_backend/internal/model"
	"sort"
	"sync"

	"gorm.io/gorm"
)

// memGateway is an in-memory PersistenceGateway.
type memGateway struct {
	mu          sync.Mutex
	assessments map[uint]*model.Assessment
	attempts    map[string]*model.Attempt
	answers     map[string]map[uint]model.AttemptAnswer
	levels      map[uint]*model.Level
	seq         int

	listErr       error
	createErr     error
	finalizeErr   error
	finalizeCalls int

	promoteNext  *uint
	promoteErr   error
	promoteCalls int
}

func newMemGateway() *memGateway {
	return &memGateway{
		assessments: make(map[uint]*model.Assessment),
		attempts:    make(map[string]*model.Attempt),
		answers:     make(map[string]map[uint]model.AttemptAnswer),
		levels:      make(map[uint]*model.Level),
	}
}

func (g *memGateway) addAssessment(a *model.Assessment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.assessments[a.ID] = a
}

func (g *memGateway) FindAssessment(_ context.Context, id uint) (*model.Assessment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	a, ok := g.assessments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (g *memGateway) ListAttempts(_ context.Context, studentID, assessmentID uint) ([]model.Attempt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listErr != nil {
		return nil, g.listErr
	}
	var out []model.Attempt
	for _, a := range g.attempts {
		if a.StudentID == studentID && a.AssessmentID == assessmentID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttemptNumber < out[j].AttemptNumber })
	return out, nil
}

func (g *memGateway) CreateAttempt(_ context.Context, attempt *model.Attempt) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return g.createErr
	}
	g.seq++
	attempt.ID = fmt.Sprintf("att-%d", g.seq)
	cp := *attempt
	g.attempts[attempt.ID] = &cp
	return nil
}

func (g *memGateway) FindAttempt(_ context.Context, id string) (*model.Attempt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	a, ok := g.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (g *memGateway) SaveDraftAnswer(_ context.Context, answer *model.AttemptAnswer) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	a, ok := g.attempts[answer.AttemptID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if a.IsSubmitted() {
		return false, nil
	}
	if g.answers[answer.AttemptID] == nil {
		g.answers[answer.AttemptID] = make(map[uint]model.AttemptAnswer)
	}
	g.answers[answer.AttemptID][answer.QuestionID] = *answer
	return true, nil
}

func (g *memGateway) ListAnswers(_ context.Context, attemptID string) ([]model.AttemptAnswer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []model.AttemptAnswer
	for _, a := range g.answers[attemptID] {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (g *memGateway) FinalizeAttempt(_ context.Context, attempt *model.Attempt, answers []model.AttemptAnswer) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.finalizeCalls++
	if g.finalizeErr != nil {
		return false, g.finalizeErr
	}
	stored, ok := g.attempts[attempt.ID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	if stored.IsSubmitted() {
		return false, nil
	}
	cp := *attempt
	cp.Assessment = nil
	g.attempts[attempt.ID] = &cp
	rows := make(map[uint]model.AttemptAnswer, len(answers))
	for _, a := range answers {
		rows[a.QuestionID] = a
	}
	g.answers[attempt.ID] = rows
	return true, nil
}

func (g *memGateway) PromoteStudentToNextLevel(_ context.Context, _, _ uint, _ string) (*uint, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.promoteCalls++
	return g.promoteNext, g.promoteErr
}

func (g *memGateway) FindLevel(_ context.Context, id uint) (*model.Level, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.levels[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return l, nil
}

func (g *memGateway) ListOpenTimedAttempts(_ context.Context) ([]model.Attempt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []model.Attempt
	for _, a := range g.attempts {
		assessment := g.assessments[a.AssessmentID]
		if a.IsSubmitted() || assessment == nil || !assessment.IsTimed() {
			continue
		}
		cp := *a
		cp.Assessment = assessment
		out = append(out, cp)
	}
	return out, nil
}

// storedAttempt returns a copy of the persisted row.
func (g *memGateway) storedAttempt(id string) *model.Attempt {
	g.mu.Lock()
	defer g.mu.Unlock()
	cp := *g.attempts[id]
	return &cp
}

func (g *memGateway) attemptCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.attempts)
}

func (g *memGateway) finalizes() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.finalizeCalls
}
