package services

import (
	"context"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"github.com/aws-samples/amazon-textract-a2i-pdf/workers/orchestrator/domain"
)

// Consumer-side interfaces
type SQSRepository interface {
	ReceiveMessages(ctx context.Context, queueURL string) ([]types.Message, error)
	DeleteMessage(ctx context.Context, queueURL string, receiptHandle string) error
}

type SubmissionRunner interface {
	Dispatch(ctx context.Context, sub domain.Submission) (*PendingSubmission, error)
	WaitAndCombine(ctx context.Context, pending *PendingSubmission) error
}

// KickoffService consumes object-created notifications from the upload queue
// and starts one submission lifecycle per recognized upload.
type KickoffService struct {
	sqsRepo    SQSRepository
	machine    SubmissionRunner
	queueURL   string
	retryDelay time.Duration
}

func NewKickoffService(sqsRepo SQSRepository, machine SubmissionRunner, queueURL string) *KickoffService {
	return &KickoffService{
		sqsRepo:    sqsRepo,
		machine:    machine,
		queueURL:   queueURL,
		retryDelay: 5 * time.Second,
	}
}

func (s *KickoffService) Start(ctx context.Context) {
	log.Println("Kickoff Service started")
	for {
		select {
		case <-ctx.Done():
			log.Println("Kickoff Service stopping...")
			return
		default:
			messages, err := s.sqsRepo.ReceiveMessages(ctx, s.queueURL)
			if err != nil {
				log.Printf("Error receiving upload notifications: %v", err)
				time.Sleep(s.retryDelay)
				continue
			}

			for _, msg := range messages {
				sub, ok := s.ParseUpload(*msg.Body)
				if !ok {
					log.Printf("Dropping unrecognized upload notification")
				} else {
					log.Printf("Starting submission %s for s3://%s/%s", sub.ID, sub.Bucket, sub.Key)
					pending, err := s.machine.Dispatch(ctx, sub)
					if err != nil {
						// Not acked: split, upload record and page dispatch
						// are all transient failures the queue retries.
						log.Printf("Submission %s not dispatched: %v", sub.ID, err)
						continue
					}
					if pending != nil {
						go func(id string, pending *PendingSubmission) {
							if err := s.machine.WaitAndCombine(ctx, pending); err != nil {
								log.Printf("Submission %s failed: %v", id, err)
							}
						}(sub.ID, pending)
					}
				}

				// Acked only after every page unit is dispatched; a branch
				// can stay paused on human review far longer than any
				// visibility window, so only the wait runs post-ack.
				if err := s.sqsRepo.DeleteMessage(ctx, s.queueURL, *msg.ReceiptHandle); err != nil {
					log.Printf("Error deleting upload notification: %v", err)
				}
			}
		}
	}
}

// ParseUpload turns an object-created notification into a new submission.
// Uploads without a recognized extension are dropped before the state
// machine ever sees them.
func (s *KickoffService) ParseUpload(body string) (domain.Submission, bool) {
	event, err := domain.ParseS3Event(body)
	if err != nil || len(event.Records) == 0 {
		return domain.Submission{}, false
	}

	record := event.Records[0]
	key, err := url.QueryUnescape(record.S3.Object.Key)
	if err != nil {
		return domain.Submission{}, false
	}

	ext, ok := recognizedExtension(key)
	if !ok {
		return domain.Submission{}, false
	}

	return domain.Submission{
		ID:        strings.ReplaceAll(uuid.NewString(), "-", ""),
		Bucket:    record.S3.Bucket.Name,
		Key:       key,
		Extension: ext,
	}, true
}

func recognizedExtension(key string) (string, bool) {
	dot := strings.LastIndex(key, ".")
	if dot < 0 {
		return "", false
	}
	ext := strings.ToLower(key[dot+1:])
	switch ext {
	case domain.ExtensionPDF, domain.ExtensionPNG, domain.ExtensionJPG:
		return ext, true
	}
	return "", false
}
