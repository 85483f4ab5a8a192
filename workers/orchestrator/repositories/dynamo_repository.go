package repositories

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// UploadsRepository records each observed upload in the upload-ids table,
// keyed by submission id.
type UploadsRepository struct {
	client    DynamoDBAPI
	tableName string
}

func NewUploadsRepository(client DynamoDBAPI, tableName string) *UploadsRepository {
	return &UploadsRepository{
		client:    client,
		tableName: tableName,
	}
}

func (r *UploadsRepository) RecordUpload(ctx context.Context, id string, key string) error {
	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item: map[string]types.AttributeValue{
			"id":  &types.AttributeValueMemberS{Value: id},
			"key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to record upload %s in DynamoDB: %w", id, err)
	}
	return nil
}
