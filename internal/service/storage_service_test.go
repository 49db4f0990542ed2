package service

import (
	"bytes"
	"context"
	"lingo_edu_backend/internal/config"
	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/internal/util"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// a minimal RIFF/WAVE header is enough for content sniffing
var wavBytes = append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), bytes.Repeat([]byte{0}, 64)...)

func newLocalStorage(t *testing.T) (*StorageService, string) {
	dir := t.TempDir()
	cfg := &config.Config{Storage: config.StorageConfig{Type: util.StorageLocal, LocalPath: dir}}
	return NewStorageService(cfg), dir
}

func TestStoreAnswerFileWritesLocally(t *testing.T) {
	svc, dir := newLocalStorage(t)

	url, err := svc.StoreAnswerFile(context.Background(), "att-1", 7, model.QuestionAudioUpload, "reading.wav", bytes.NewReader(wavBytes), int64(len(wavBytes)))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "/uploads/answers/att-1/7/"))
	assert.True(t, strings.HasSuffix(url, ".wav"))

	stored, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(url, "/uploads/"))))
	require.NoError(t, err)
	assert.Equal(t, wavBytes, stored)
}

func TestStoreAnswerFileRejectsWrongMedia(t *testing.T) {
	svc, _ := newLocalStorage(t)
	ctx := context.Background()
	html := []byte("<html><body>not audio</body></html>")

	_, err := svc.StoreAnswerFile(ctx, "att-1", 7, model.QuestionAudioUpload, "essay.pdf", bytes.NewReader(wavBytes), int64(len(wavBytes)))
	assert.ErrorIs(t, err, util.ErrUnsupportedMedia)

	_, err = svc.StoreAnswerFile(ctx, "att-1", 7, model.QuestionAudioUpload, "fake.mp3", bytes.NewReader(html), int64(len(html)))
	assert.ErrorIs(t, err, util.ErrUnsupportedMedia)

	_, err = svc.StoreAnswerFile(ctx, "att-1", 7, model.QuestionOpenText, "a.txt", bytes.NewReader(html), int64(len(html)))
	assert.ErrorIs(t, err, util.ErrAnswerTypeMismatch)

	svc.MaxBytes = 10
	_, err = svc.StoreAnswerFile(ctx, "att-1", 7, model.QuestionAudioUpload, "reading.wav", bytes.NewReader(wavBytes), int64(len(wavBytes)))
	assert.ErrorIs(t, err, util.ErrUnsupportedMedia)
}

func TestUploadAnswerSavesURLAsDraft(t *testing.T) {
	gw := newMemGateway()
	a := &model.Assessment{
		Kind:                model.KindExercise,
		PassingScorePercent: 50,
		IsPublished:         true,
		Questions: []model.AssessmentQuestion{
			manualQuestion(1, 1, model.QuestionAudioUpload, 1),
			choiceQuestion(2, 2, model.QuestionMultipleChoice, 1, "a"),
		},
	}
	a.ID = 1
	gw.addAssessment(a)

	svc := NewAttemptService(gw, newFakeClock(), nil, AttemptPolicy{})
	storage, _ := newLocalStorage(t)
	svc.UseAnswerStore(storage)

	ctx := context.Background()
	view, err := svc.OpenAttempt(ctx, student, 1)
	require.NoError(t, err)

	answer, ok, err := svc.UploadAnswer(ctx, view.ID, student, 1, "intro.wav", bytes.NewReader(wavBytes), int64(len(wavBytes)))
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(answer.Value.Data().FileURL, "/uploads/answers/"))

	_, _, err = svc.UploadAnswer(ctx, view.ID, student, 2, "intro.wav", bytes.NewReader(wavBytes), int64(len(wavBytes)))
	assert.ErrorIs(t, err, util.ErrAnswerTypeMismatch)

	_, _, err = svc.UploadAnswer(ctx, view.ID, student+1, 1, "intro.wav", bytes.NewReader(wavBytes), int64(len(wavBytes)))
	assert.ErrorIs(t, err, util.ErrNotAttemptOwner)
}
