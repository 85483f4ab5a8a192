package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/aws-samples/amazon-textract-a2i-pdf/internal/correlation"
	"github.com/aws-samples/amazon-textract-a2i-pdf/internal/extract"
	"github.com/aws-samples/amazon-textract-a2i-pdf/workers/analyzer/domain"
)

// Mocks
type MockOCR struct {
	mock.Mock
}

func (m *MockOCR) AnalyzeForms(ctx context.Context, bucket, key, loopName string) ([]types.Block, bool, error) {
	args := m.Called(ctx, bucket, key, loopName)
	blocks, _ := args.Get(0).([]types.Block)
	return blocks, args.Bool(1), args.Error(2)
}

type MockResults struct {
	mock.Mock
}

func (m *MockResults) PutJSON(ctx context.Context, bucket, key string, body interface{}) error {
	args := m.Called(ctx, bucket, key, body)
	return args.Error(0)
}

type MockTokens struct {
	mock.Mock
}

func (m *MockTokens) PutToken(ctx context.Context, key correlation.JobKey, token string) error {
	args := m.Called(ctx, key, token)
	return args.Error(0)
}

type MockWorkflow struct {
	mock.Mock
}

func (m *MockWorkflow) SendTaskSuccess(ctx context.Context, token string, output json.RawMessage) error {
	args := m.Called(ctx, token, output)
	return args.Error(0)
}

func formBlocks() []types.Block {
	return []types.Block{
		{BlockType: types.BlockTypeWord, Id: aws.String("w1"), Text: aws.String("Name")},
		{BlockType: types.BlockTypeWord, Id: aws.String("w2"), Text: aws.String("Jane")},
		{
			BlockType:   types.BlockTypeKeyValueSet,
			Id:          aws.String("k1"),
			EntityTypes: []types.EntityType{types.EntityTypeKey},
			Relationships: []types.Relationship{
				{Type: types.RelationshipTypeValue, Ids: []string{"v1"}},
				{Type: types.RelationshipTypeChild, Ids: []string{"w1"}},
			},
		},
		{
			BlockType:   types.BlockTypeKeyValueSet,
			Id:          aws.String("v1"),
			EntityTypes: []types.EntityType{types.EntityTypeValue},
			Relationships: []types.Relationship{
				{Type: types.RelationshipTypeChild, Ids: []string{"w2"}},
			},
		},
	}
}

func pageUnit() domain.PageUnitMessage {
	return domain.PageUnitMessage{
		ID:        "abc123",
		Bucket:    "docs",
		Key:       "uploads/form.pdf",
		PageIndex: 2,
		Token:     "token-1",
	}
}

func TestProcess_NoEscalationResumesImmediately(t *testing.T) {
	ocr := new(MockOCR)
	results := new(MockResults)
	tokens := new(MockTokens)
	workflow := new(MockWorkflow)
	s := NewAnalyzerService(nil, ocr, results, tokens, workflow)

	unit := pageUnit()
	ocr.On("AnalyzeForms", mock.Anything, "docs", "wip/abc123/2.png", "abc123i2").
		Return(formBlocks(), false, nil)
	results.On("PutJSON", mock.Anything, "docs", "wip/abc123/2.png/ai/output.json", mock.MatchedBy(func(body interface{}) bool {
		pairs := body.([]extract.Pair)
		return len(pairs) == 1 && pairs[0].Key == "Name" && pairs[0].Value == "Jane"
	})).Return(nil)
	workflow.On("SendTaskSuccess", mock.Anything, "token-1", domain.TrivialCompletion).Return(nil)

	err := s.Process(context.Background(), unit)

	assert.NoError(t, err)
	tokens.AssertNotCalled(t, "PutToken", mock.Anything, mock.Anything, mock.Anything)
	ocr.AssertExpectations(t)
	results.AssertExpectations(t)
	workflow.AssertExpectations(t)
}

func TestProcess_EscalationStoresTokenAndStaysPaused(t *testing.T) {
	ocr := new(MockOCR)
	results := new(MockResults)
	tokens := new(MockTokens)
	workflow := new(MockWorkflow)
	s := NewAnalyzerService(nil, ocr, results, tokens, workflow)

	unit := pageUnit()
	ocr.On("AnalyzeForms", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(formBlocks(), true, nil)
	// The automated result is persisted even though a human will review.
	results.On("PutJSON", mock.Anything, "docs", "wip/abc123/2.png/ai/output.json", mock.Anything).Return(nil)
	tokens.On("PutToken", mock.Anything, correlation.JobKey{SubmissionID: "abc123", PageIndex: 2}, "token-1").Return(nil)

	err := s.Process(context.Background(), unit)

	assert.NoError(t, err)
	workflow.AssertNotCalled(t, "SendTaskSuccess", mock.Anything, mock.Anything, mock.Anything)
	tokens.AssertExpectations(t)
	results.AssertExpectations(t)
}

func TestProcess_SingleImageUsesOriginalUploadKey(t *testing.T) {
	ocr := new(MockOCR)
	results := new(MockResults)
	tokens := new(MockTokens)
	workflow := new(MockWorkflow)
	s := NewAnalyzerService(nil, ocr, results, tokens, workflow)

	unit := domain.PageUnitMessage{
		ID:          "abc123",
		Bucket:      "docs",
		Key:         "uploads/scan.png",
		PageIndex:   0,
		SingleImage: true,
		Token:       "token-1",
	}
	// Analysis reads the upload itself; the result still lands at the
	// synthetic page-zero location.
	ocr.On("AnalyzeForms", mock.Anything, "docs", "uploads/scan.png", "abc123i0").
		Return(formBlocks(), false, nil)
	results.On("PutJSON", mock.Anything, "docs", "wip/abc123/0.png/ai/output.json", mock.Anything).Return(nil)
	workflow.On("SendTaskSuccess", mock.Anything, "token-1", domain.TrivialCompletion).Return(nil)

	err := s.Process(context.Background(), unit)

	assert.NoError(t, err)
	ocr.AssertExpectations(t)
	results.AssertExpectations(t)
}

func TestProcess_DuplicateEscalationIsAcknowledged(t *testing.T) {
	ocr := new(MockOCR)
	results := new(MockResults)
	tokens := new(MockTokens)
	workflow := new(MockWorkflow)
	s := NewAnalyzerService(nil, ocr, results, tokens, workflow)

	ocr.On("AnalyzeForms", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(formBlocks(), true, nil)
	results.On("PutJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	tokens.On("PutToken", mock.Anything, mock.Anything, mock.Anything).
		Return(fmt.Errorf("job abc123i2: %w", correlation.ErrTokenExists))

	err := s.Process(context.Background(), pageUnit())

	// Duplicate delivery: no error, so the message gets deleted.
	assert.NoError(t, err)
	workflow.AssertNotCalled(t, "SendTaskSuccess", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_AnalysisFailurePropagates(t *testing.T) {
	ocr := new(MockOCR)
	results := new(MockResults)
	tokens := new(MockTokens)
	workflow := new(MockWorkflow)
	s := NewAnalyzerService(nil, ocr, results, tokens, workflow)

	ocr.On("AnalyzeForms", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, false, errors.New("throttled"))

	err := s.Process(context.Background(), pageUnit())

	assert.Error(t, err)
	results.AssertNotCalled(t, "PutJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	workflow.AssertNotCalled(t, "SendTaskSuccess", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_PersistFailurePropagates(t *testing.T) {
	ocr := new(MockOCR)
	results := new(MockResults)
	tokens := new(MockTokens)
	workflow := new(MockWorkflow)
	s := NewAnalyzerService(nil, ocr, results, tokens, workflow)

	ocr.On("AnalyzeForms", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(formBlocks(), false, nil)
	results.On("PutJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("s3 down"))

	err := s.Process(context.Background(), pageUnit())

	assert.Error(t, err)
	workflow.AssertNotCalled(t, "SendTaskSuccess", mock.Anything, mock.Anything, mock.Anything)
}
