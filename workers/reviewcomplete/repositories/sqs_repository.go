package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/aws-samples/amazon-textract-a2i-pdf/workers/reviewcomplete/domain"
)

type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type SQSRepository struct {
	client           SQSAPI
	inputQueueURL    string
	callbackQueueURL string
}

func NewSQSRepository(client SQSAPI, inputQueueURL, callbackQueueURL string) *SQSRepository {
	return &SQSRepository{
		client:           client,
		inputQueueURL:    inputQueueURL,
		callbackQueueURL: callbackQueueURL,
	}
}

func (r *SQSRepository) ReceiveMessages(ctx context.Context) ([]types.Message, error) {
	output, err := r.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(r.inputQueueURL),
		MaxNumberOfMessages: 10,
		WaitTimeSeconds:     20,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to receive messages: %w", err)
	}
	return output.Messages, nil
}

func (r *SQSRepository) DeleteMessage(ctx context.Context, receiptHandle string) error {
	_, err := r.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(r.inputQueueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// SendTaskSuccess resumes the paused orchestrator branch holding the token.
func (r *SQSRepository) SendTaskSuccess(ctx context.Context, token string, output json.RawMessage) error {
	body, err := json.Marshal(domain.ResumeMessage{Token: token, Output: output})
	if err != nil {
		return fmt.Errorf("failed to marshal resume message: %w", err)
	}
	_, err = r.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(r.callbackQueueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to send resume message: %w", err)
	}
	return nil
}
