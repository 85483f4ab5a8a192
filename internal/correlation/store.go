// Package correlation matches an asynchronous human-review completion back
// to the paused workflow branch that is waiting for it.
package correlation

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	// ErrNotFound is returned when no token is recorded for a job key.
	// Callers treat it as retryable: the table is eventually consistent and
	// the put may simply not have landed yet.
	ErrNotFound = errors.New("correlation: token not found")

	// ErrTokenExists is returned when a token is already recorded for a job
	// key. A second escalation of the same page is a duplicate delivery, not
	// a legitimate overwrite.
	ErrTokenExists = errors.New("correlation: token already recorded")
)

// JobKey identifies the paused branch for one page of one submission.
type JobKey struct {
	SubmissionID string
	PageIndex    int
}

// LoopName is the string form of the key, used as the human-review loop name
// and as the table's partition key. The structured fields are stored
// alongside the token, so nothing ever parses this string back apart.
func (k JobKey) LoopName() string {
	return k.SubmissionID + "i" + strconv.Itoa(k.PageIndex)
}

// Record is one stored correlation entry.
type Record struct {
	JobKey
	Token string
}

type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Store is the DynamoDB-backed correlation table.
type Store struct {
	client    DynamoDBAPI
	tableName string
}

func NewStore(client DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
	}
}

// PutToken records the continuation token for a job key. The put is
// create-once: a live token for the same key fails with ErrTokenExists
// instead of being silently overwritten.
func (s *Store) PutToken(ctx context.Context, key JobKey, token string) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"jobid":          &types.AttributeValueMemberS{Value: key.LoopName()},
			"callback_token": &types.AttributeValueMemberS{Value: token},
			"submission_id":  &types.AttributeValueMemberS{Value: key.SubmissionID},
			"page_index":     &types.AttributeValueMemberN{Value: strconv.Itoa(key.PageIndex)},
		},
		ConditionExpression: aws.String("attribute_not_exists(jobid)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return fmt.Errorf("job %s: %w", key.LoopName(), ErrTokenExists)
		}
		return fmt.Errorf("failed to record token for job %s: %w", key.LoopName(), err)
	}
	return nil
}

// GetToken looks up the record for a loop name.
func (s *Store) GetToken(ctx context.Context, loopName string) (Record, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"jobid": &types.AttributeValueMemberS{Value: loopName},
		},
	})
	if err != nil {
		return Record{}, fmt.Errorf("failed to look up token for job %s: %w", loopName, err)
	}
	if out.Item == nil {
		return Record{}, fmt.Errorf("job %s: %w", loopName, ErrNotFound)
	}

	rec := Record{}
	if v, ok := out.Item["callback_token"].(*types.AttributeValueMemberS); ok {
		rec.Token = v.Value
	}
	if v, ok := out.Item["submission_id"].(*types.AttributeValueMemberS); ok {
		rec.SubmissionID = v.Value
	}
	if v, ok := out.Item["page_index"].(*types.AttributeValueMemberN); ok {
		page, err := strconv.Atoi(v.Value)
		if err != nil {
			return Record{}, fmt.Errorf("job %s has malformed page index %q", loopName, v.Value)
		}
		rec.PageIndex = page
	}
	if rec.Token == "" {
		return Record{}, fmt.Errorf("job %s has no callback token recorded", loopName)
	}
	return rec, nil
}

// DeleteToken removes a consumed token so the job key can be reused.
func (s *Store) DeleteToken(ctx context.Context, loopName string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"jobid": &types.AttributeValueMemberS{Value: loopName},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete token for job %s: %w", loopName, err)
	}
	return nil
}
