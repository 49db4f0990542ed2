package service

import (
	"context"
	"io"
	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/internal/util"
)

// AnswerStore keeps uploaded answer media. StorageService implements it.
type AnswerStore interface {
	StoreAnswerFile(ctx context.Context, attemptID string, questionID uint, qt model.QuestionType, filename string, reader io.Reader, size int64) (string, error)
}

func (s *AttemptService) UseAnswerStore(store AnswerStore) {
	s.store = store
}

// UploadAnswer stores the media for an upload question and saves its URL as the draft answer.
// Nothing is stored for a submitted attempt.
func (s *AttemptService) UploadAnswer(ctx context.Context, attemptID string, studentID, questionID uint, filename string, reader io.Reader, size int64) (*model.AttemptAnswer, bool, error) {
	if s.store == nil {
		return nil, false, util.ErrUnsupportedMedia
	}

	attempt, err := s.ownedAttempt(ctx, attemptID, studentID)
	if err != nil {
		return nil, false, err
	}
	if attempt.IsSubmitted() {
		return nil, false, nil
	}

	assessment, err := s.loadAssessment(ctx, attempt.AssessmentID, false)
	if err != nil {
		return nil, false, err
	}
	question := findQuestion(assessment, questionID)
	if question == nil {
		return nil, false, util.ErrQuestionNotInAssessment
	}
	if !question.Type.IsUpload() {
		return nil, false, util.ErrAnswerTypeMismatch
	}

	url, err := s.store.StoreAnswerFile(ctx, attemptID, questionID, question.Type, filename, reader, size)
	if err != nil {
		return nil, false, err
	}
	return s.SaveAnswer(ctx, attemptID, studentID, questionID, model.AnswerValue{FileURL: url})
}
