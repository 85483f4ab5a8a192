package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/aws-samples/amazon-textract-a2i-pdf/workers/orchestrator/domain"
)

type SplitterRepository interface {
	SplitDocument(ctx context.Context, bucket, key, id string) (int, error)
}

type QueueRepository interface {
	SendMessage(ctx context.Context, queueURL string, body interface{}) error
}

type UploadsRepository interface {
	RecordUpload(ctx context.Context, id string, key string) error
}

type BranchRegistry interface {
	Mint() string
	Await(ctx context.Context, token string) (json.RawMessage, error)
	Drop(token string)
}

type Aggregator interface {
	Combine(ctx context.Context, sub domain.Submission, units []domain.PageUnit) error
}

// MachineService owns the per-submission lifecycle in two phases. Dispatch
// splits the upload into page units, records it and sends every page
// message; it stays synchronous so the upload notification is acked only
// once the submission cannot be lost to a transient failure. WaitAndCombine
// then joins the paused branches and aggregates. Branches are resumed
// externally, by the analyzer directly or by the review completion handler
// after a human has looked at the page.
type MachineService struct {
	splitter     SplitterRepository
	queue        QueueRepository
	uploads      UploadsRepository
	registry     BranchRegistry
	aggregator   Aggregator
	pageQueueURL string
}

func NewMachineService(splitter SplitterRepository, queue QueueRepository, uploads UploadsRepository, registry BranchRegistry, aggregator Aggregator, pageQueueURL string) *MachineService {
	return &MachineService{
		splitter:     splitter,
		queue:        queue,
		uploads:      uploads,
		registry:     registry,
		aggregator:   aggregator,
		pageQueueURL: pageQueueURL,
	}
}

// PendingSubmission is a submission whose page units are all dispatched and
// whose branches have not yet resumed.
type PendingSubmission struct {
	sub    domain.Submission
	units  []domain.PageUnit
	tokens []string
}

// Dispatch runs the synchronous phase of a submission: split into page
// units, record the upload, mint one continuation token per unit and send
// every page message. A failure anywhere in here is retryable by the
// caller; minted tokens are dropped so a retry starts clean. A nil pending
// with nil error means the submission produced no pages.
func (s *MachineService) Dispatch(ctx context.Context, sub domain.Submission) (*PendingSubmission, error) {
	units, err := s.split(ctx, sub)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		log.Printf("Submission %s produced no pages, nothing to do", sub.ID)
		return nil, nil
	}

	if err := s.uploads.RecordUpload(ctx, sub.ID, sub.Key); err != nil {
		return nil, err
	}

	tokens := make([]string, 0, len(units))
	for _, unit := range units {
		token := s.registry.Mint()
		msg := domain.PageUnitMessage{
			ID:          sub.ID,
			Bucket:      sub.Bucket,
			Key:         sub.Key,
			PageIndex:   unit.PageIndex,
			SingleImage: unit.SingleImage,
			Token:       token,
		}
		if err := s.queue.SendMessage(ctx, s.pageQueueURL, msg); err != nil {
			s.registry.Drop(token)
			for _, t := range tokens {
				s.registry.Drop(t)
			}
			return nil, fmt.Errorf("failed to dispatch page %d of %s: %w", unit.PageIndex, sub.ID, err)
		}
		tokens = append(tokens, token)
	}

	return &PendingSubmission{sub: sub, units: units, tokens: tokens}, nil
}

// WaitAndCombine blocks until every dispatched branch has resumed, then
// aggregates. A branch stuck on a review that never completes blocks the
// submission indefinitely.
func (s *MachineService) WaitAndCombine(ctx context.Context, pending *PendingSubmission) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := range pending.units {
		i := i
		g.Go(func() error {
			if _, err := s.registry.Await(gctx, pending.tokens[i]); err != nil {
				return fmt.Errorf("page %d never resumed: %w", pending.units[i].PageIndex, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("submission %s: %w", pending.sub.ID, err)
	}

	return s.aggregator.Combine(ctx, pending.sub, pending.units)
}

// split maps the upload onto page units: a document is rasterized and gets
// one unit per page, an image gets exactly one synthetic unit.
func (s *MachineService) split(ctx context.Context, sub domain.Submission) ([]domain.PageUnit, error) {
	switch sub.Extension {
	case domain.ExtensionPDF:
		count, err := s.splitter.SplitDocument(ctx, sub.Bucket, sub.Key, sub.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to split submission %s: %w", sub.ID, err)
		}
		units := make([]domain.PageUnit, 0, count)
		for page := 0; page < count; page++ {
			units = append(units, domain.PageUnit{PageIndex: page})
		}
		return units, nil
	case domain.ExtensionPNG, domain.ExtensionJPG:
		return []domain.PageUnit{{PageIndex: 0, SingleImage: true}}, nil
	default:
		return nil, fmt.Errorf("submission %s has unrecognized extension %q", sub.ID, sub.Extension)
	}
}

