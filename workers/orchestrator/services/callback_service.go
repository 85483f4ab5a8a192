package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/aws-samples/amazon-textract-a2i-pdf/workers/orchestrator/domain"
)

type Resumer interface {
	Resume(token string, output json.RawMessage) bool
}

// CallbackService consumes resume messages from the callback queue and hands
// them to the branch registry. It does not distinguish automated from human
// resumptions; the payload travels through untouched.
type CallbackService struct {
	sqsRepo    SQSRepository
	registry   Resumer
	queueURL   string
	retryDelay time.Duration
}

func NewCallbackService(sqsRepo SQSRepository, registry Resumer, queueURL string) *CallbackService {
	return &CallbackService{
		sqsRepo:    sqsRepo,
		registry:   registry,
		queueURL:   queueURL,
		retryDelay: 5 * time.Second,
	}
}

func (s *CallbackService) Start(ctx context.Context) {
	log.Println("Callback Service started")
	for {
		select {
		case <-ctx.Done():
			log.Println("Callback Service stopping...")
			return
		default:
			messages, err := s.sqsRepo.ReceiveMessages(ctx, s.queueURL)
			if err != nil {
				log.Printf("Error receiving callbacks: %v", err)
				time.Sleep(s.retryDelay)
				continue
			}

			for _, msg := range messages {
				var resume domain.ResumeMessage
				if err := json.Unmarshal([]byte(*msg.Body), &resume); err != nil {
					log.Printf("Error unmarshaling callback: %v", err)
				} else if !s.registry.Resume(resume.Token, resume.Output) {
					// Duplicate delivery or a branch lost to a restart.
					log.Printf("No pending branch for callback token %s", resume.Token)
				}

				if err := s.sqsRepo.DeleteMessage(ctx, s.queueURL, *msg.ReceiptHandle); err != nil {
					log.Printf("Error deleting callback: %v", err)
				}
			}
		}
	}
}
