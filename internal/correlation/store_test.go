package correlation

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
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}

func (m *MockDynamoDB) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}

func (m *MockDynamoDB) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*dynamodb.DeleteItemOutput)
	return out, args.Error(1)
}

func TestJobKey_LoopName(t *testing.T) {
	key := JobKey{SubmissionID: "abc123", PageIndex: 4}
	assert.Equal(t, "abc123i4", key.LoopName())
}

func TestPutToken(t *testing.T) {
	client := new(MockDynamoDB)
	store := NewStore(client, "callback-table")

	client.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		jobid := in.Item["jobid"].(*types.AttributeValueMemberS).Value
		token := in.Item["callback_token"].(*types.AttributeValueMemberS).Value
		return *in.TableName == "callback-table" &&
			jobid == "abc123i2" &&
			token == "token-1" &&
			*in.ConditionExpression == "attribute_not_exists(jobid)"
	})).Return(&dynamodb.PutItemOutput{}, nil)

	err := store.PutToken(context.TODO(), JobKey{SubmissionID: "abc123", PageIndex: 2}, "token-1")

	assert.NoError(t, err)
	client.AssertExpectations(t)
}

func TestPutToken_DuplicateFailsLoudly(t *testing.T) {
	client := new(MockDynamoDB)
	store := NewStore(client, "callback-table")

	client.On("PutItem", mock.Anything, mock.Anything).
		Return(nil, &types.ConditionalCheckFailedException{})

	err := store.PutToken(context.TODO(), JobKey{SubmissionID: "abc123", PageIndex: 2}, "token-2")

	assert.ErrorIs(t, err, ErrTokenExists)
}

func TestGetToken(t *testing.T) {
	client := new(MockDynamoDB)
	store := NewStore(client, "callback-table")

	client.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return in.Key["jobid"].(*types.AttributeValueMemberS).Value == "abc123i2"
	})).Return(&dynamodb.GetItemOutput{
		Item: map[string]types.AttributeValue{
			"jobid":          &types.AttributeValueMemberS{Value: "abc123i2"},
			"callback_token": &types.AttributeValueMemberS{Value: "token-1"},
			"submission_id":  &types.AttributeValueMemberS{Value: "abc123"},
			"page_index":     &types.AttributeValueMemberN{Value: "2"},
		},
	}, nil)

	rec, err := store.GetToken(context.TODO(), "abc123i2")

	assert.NoError(t, err)
	assert.Equal(t, "token-1", rec.Token)
	assert.Equal(t, "abc123", rec.SubmissionID)
	assert.Equal(t, 2, rec.PageIndex)
}

func TestGetToken_NotFound(t *testing.T) {
	client := new(MockDynamoDB)
	store := NewStore(client, "callback-table")

	client.On("GetItem", mock.Anything, mock.Anything).
		Return(&dynamodb.GetItemOutput{Item: nil}, nil)

	_, err := store.GetToken(context.TODO(), "abc123i2")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetToken_ClientError(t *testing.T) {
	client := new(MockDynamoDB)
	store := NewStore(client, "callback-table")

	client.On("GetItem", mock.Anything, mock.Anything).
		Return(nil, errors.New("throttled"))

	_, err := store.GetToken(context.TODO(), "abc123i2")

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestDeleteToken(t *testing.T) {
	client := new(MockDynamoDB)
	store := NewStore(client, "callback-table")

	client.On("DeleteItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.DeleteItemInput) bool {
		return in.Key["jobid"].(*types.AttributeValueMemberS).Value == "abc123i2"
	})).Return(&dynamodb.DeleteItemOutput{}, nil)

	err := store.DeleteToken(context.TODO(), "abc123i2")

	assert.NoError(t, err)
	client.AssertExpectations(t)
}
