package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/aws-samples/amazon-textract-a2i-pdf/internal/correlation"
	"github.com/aws-samples/amazon-textract-a2i-pdf/internal/extract"
	"github.com/aws-samples/amazon-textract-a2i-pdf/workers/analyzer/domain"
)

// Consumer-side interfaces
type QueueRepository interface {
	ReceiveMessages(ctx context.Context) ([]sqstypes.Message, error)
	DeleteMessage(ctx context.Context, receiptHandle string) error
}

type OCRRepository interface {
	AnalyzeForms(ctx context.Context, bucket, key, loopName string) ([]types.Block, bool, error)
}

type ResultRepository interface {
	PutJSON(ctx context.Context, bucket, key string, body interface{}) error
}

type TokenStore interface {
	PutToken(ctx context.Context, key correlation.JobKey, token string) error
}

type WorkflowRepository interface {
	SendTaskSuccess(ctx context.Context, token string, output json.RawMessage) error
}

// AnalyzerService consumes page units, runs forms analysis, persists the
// automated result, and either resumes the paused branch immediately or
// records its continuation token for the human-review completion to pick up.
type AnalyzerService struct {
	queueRepo  QueueRepository
	ocrRepo    OCRRepository
	resultRepo ResultRepository
	tokens     TokenStore
	workflow   WorkflowRepository
	retryDelay time.Duration
}

func NewAnalyzerService(queueRepo QueueRepository, ocrRepo OCRRepository, resultRepo ResultRepository, tokens TokenStore, workflow WorkflowRepository) *AnalyzerService {
	return &AnalyzerService{
		queueRepo:  queueRepo,
		ocrRepo:    ocrRepo,
		resultRepo: resultRepo,
		tokens:     tokens,
		workflow:   workflow,
		retryDelay: 5 * time.Second,
	}
}

func (s *AnalyzerService) Start(ctx context.Context) {
	log.Println("Analyzer Service started")
	for {
		select {
		case <-ctx.Done():
			log.Println("Analyzer Service stopping...")
			return
		default:
			messages, err := s.queueRepo.ReceiveMessages(ctx)
			if err != nil {
				log.Printf("Error receiving messages: %v", err)
				time.Sleep(s.retryDelay)
				continue
			}

			for _, msg := range messages {
				var unit domain.PageUnitMessage
				if err := json.Unmarshal([]byte(*msg.Body), &unit); err != nil {
					log.Printf("Error unmarshaling page unit: %v", err)
				} else if err := s.Process(ctx, unit); err != nil {
					// Not deleted: the queue redelivers and the whole unit
					// is reprocessed. Every write below is an idempotent
					// overwrite, so that is safe.
					log.Printf("Error processing page %d of %s: %v", unit.PageIndex, unit.ID, err)
					continue
				}

				if err := s.queueRepo.DeleteMessage(ctx, *msg.ReceiptHandle); err != nil {
					log.Printf("Error deleting message: %v", err)
				}
			}
		}
	}
}

// Process handles one page unit end to end.
func (s *AnalyzerService) Process(ctx context.Context, unit domain.PageUnitMessage) error {
	jobKey := correlation.JobKey{SubmissionID: unit.ID, PageIndex: unit.PageIndex}

	blocks, escalated, err := s.ocrRepo.AnalyzeForms(ctx, unit.Bucket, unit.ProcessKey(), jobKey.LoopName())
	if err != nil {
		return err
	}

	// The automated result is persisted even when a human will also look at
	// the page; both results appear in the final artifact.
	pairs := extract.Extract(extract.FromTextract(blocks))
	if err := s.resultRepo.PutJSON(ctx, unit.Bucket, unit.BasePageKey()+"/ai/output.json", pairs); err != nil {
		return err
	}

	if escalated {
		err := s.tokens.PutToken(ctx, jobKey, unit.Token)
		if errors.Is(err, correlation.ErrTokenExists) {
			// Redelivered unit whose first delivery already escalated; the
			// recorded token stays live, this delivery is acknowledged.
			log.Printf("Job %s already escalated, dropping duplicate", jobKey.LoopName())
			return nil
		}
		return err
	}

	return s.workflow.SendTaskSuccess(ctx, unit.Token, domain.TrivialCompletion)
}
