package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/aws-samples/amazon-textract-a2i-pdf/internal/correlation"
	"github.com/aws-samples/amazon-textract-a2i-pdf/internal/extract"
	"github.com/aws-samples/amazon-textract-a2i-pdf/workers/reviewcomplete/domain"
)

// Consumer-side interfaces
type QueueRepository interface {
	ReceiveMessages(ctx context.Context) ([]types.Message, error)
	DeleteMessage(ctx context.Context, receiptHandle string) error
}

type ObjectRepository interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	PutJSON(ctx context.Context, bucket, key string, body interface{}) error
}

type TokenStore interface {
	GetToken(ctx context.Context, loopName string) (correlation.Record, error)
	DeleteToken(ctx context.Context, loopName string) error
}

type WorkflowRepository interface {
	SendTaskSuccess(ctx context.Context, token string, output json.RawMessage) error
}

// CompletionService consumes human-loop completion events, persists the
// reviewer's answer as the page's human result, and resumes the orchestrator
// branch that has been paused since the page escalated.
type CompletionService struct {
	queueRepo  QueueRepository
	objectRepo ObjectRepository
	tokens     TokenStore
	workflow   WorkflowRepository
	retryDelay time.Duration
}

func NewCompletionService(queueRepo QueueRepository, objectRepo ObjectRepository, tokens TokenStore, workflow WorkflowRepository) *CompletionService {
	return &CompletionService{
		queueRepo:  queueRepo,
		objectRepo: objectRepo,
		tokens:     tokens,
		workflow:   workflow,
		retryDelay: 5 * time.Second,
	}
}

func (s *CompletionService) Start(ctx context.Context) {
	log.Println("Review Completion Service started")
	for {
		select {
		case <-ctx.Done():
			log.Println("Review Completion Service stopping...")
			return
		default:
			messages, err := s.queueRepo.ReceiveMessages(ctx)
			if err != nil {
				log.Printf("Error receiving messages: %v", err)
				time.Sleep(s.retryDelay)
				continue
			}

			for _, msg := range messages {
				var event domain.HumanLoopEvent
				if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
					log.Printf("Error unmarshaling human loop event: %v", err)
				} else if err := s.Process(ctx, event); err != nil {
					// Left on the queue for redelivery. A token lookup miss
					// lands here too: the store is eventually consistent and
					// the retry may find the token.
					log.Printf("Error processing human loop event: %v", err)
					continue
				}

				if err := s.queueRepo.DeleteMessage(ctx, *msg.ReceiptHandle); err != nil {
					log.Printf("Error deleting message: %v", err)
				}
			}
		}
	}
}

// Process handles one human-loop event.
func (s *CompletionService) Process(ctx context.Context, event domain.HumanLoopEvent) error {
	if event.Detail.HumanLoopStatus != domain.StatusCompleted {
		log.Printf("Ignoring human loop event with status %q", event.Detail.HumanLoopStatus)
		return nil
	}

	bucket, key, err := domain.ParseS3URI(event.Detail.HumanLoopOutput.OutputS3URI)
	if err != nil {
		return err
	}

	data, err := s.objectRepo.Get(ctx, bucket, key)
	if err != nil {
		return err
	}
	var answer domain.ReviewAnswer
	if err := json.Unmarshal(data, &answer); err != nil {
		return fmt.Errorf("malformed review answer at s3://%s/%s: %w", bucket, key, err)
	}
	raw, ok := answer.FormsAnswer()
	if !ok {
		return fmt.Errorf("review answer for loop %s carries no forms content", answer.HumanLoopName)
	}

	record, err := s.tokens.GetToken(ctx, answer.HumanLoopName)
	if err != nil {
		return err
	}

	doc, err := extract.FromHumanAnswer(raw)
	if err != nil {
		return err
	}
	pairs := extract.Extract(doc)

	dest := humanOutputKey(record.SubmissionID, answer.AnalyzedObjectKey())
	if err := s.objectRepo.PutJSON(ctx, bucket, dest, pairs); err != nil {
		return err
	}

	payload, err := json.Marshal(domain.HumanCompletion{
		IncludesHuman: "yes",
		OutputDest:    dest,
		Bucket:        bucket,
		ID:            record.SubmissionID,
		Key:           key,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal completion payload: %w", err)
	}
	if err := s.workflow.SendTaskSuccess(ctx, record.Token, payload); err != nil {
		return err
	}

	// The token is consumed; best effort, the branch is already resumed.
	if err := s.tokens.DeleteToken(ctx, answer.HumanLoopName); err != nil {
		log.Printf("Error deleting consumed token for loop %s: %v", answer.HumanLoopName, err)
	}
	return nil
}

// humanOutputKey places the human result next to the ai result of the same
// page. An analyzed object outside the working prefix was a single-image
// submission, whose result lives at the synthetic page-zero location.
func humanOutputKey(submissionID, analyzedKey string) string {
	base := analyzedKey
	if len(analyzedKey) < 3 || !strings.EqualFold(analyzedKey[:3], "wip") {
		base = "wip/" + submissionID + "/0.png"
	}
	return base + "/human/output.json"
}
