package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockDynamoDB struct {
	mock.Mock
}

func (m *MockDynamoDB) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dynamodb.PutItemOutput), args.Error(1)
}

func TestRecordUpload(t *testing.T) {
	mockDB := new(MockDynamoDB)
	repo := NewUploadsRepository(mockDB, "upload-ids")

	mockDB.On("PutItem", mock.Anything, mock.MatchedBy(func(input *dynamodb.PutItemInput) bool {
		id, _ := input.Item["id"].(*types.AttributeValueMemberS)
		key, _ := input.Item["key"].(*types.AttributeValueMemberS)
		return *input.TableName == "upload-ids" &&
			id != nil && id.Value == "abc123" &&
			key != nil && key.Value == "uploads/form.pdf"
	})).Return(&dynamodb.PutItemOutput{}, nil)

	err := repo.RecordUpload(context.Background(), "abc123", "uploads/form.pdf")

	assert.NoError(t, err)
	mockDB.AssertExpectations(t)
}

func TestRecordUpload_Error(t *testing.T) {
	mockDB := new(MockDynamoDB)
	repo := NewUploadsRepository(mockDB, "upload-ids")

	mockDB.On("PutItem", mock.Anything, mock.Anything).Return(nil, errors.New("dynamo error"))

	err := repo.RecordUpload(context.Background(), "abc123", "uploads/form.pdf")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record upload")
}
