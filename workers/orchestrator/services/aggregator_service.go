package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/aws-samples/amazon-textract-a2i-pdf/internal/extract"
	"github.com/aws-samples/amazon-textract-a2i-pdf/workers/orchestrator/domain"
)

const (
	sourceAI    = "ai"
	sourceHuman = "human"
)

type ObjectRepository interface {
	Exists(ctx context.Context, bucket, key string) (bool, error)
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
	DeletePrefix(ctx context.Context, bucket, prefix string) error
}

// AggregatorService discovers every per-page result a submission produced,
// merges them in page order into one CSV artifact, and clears the
// submission's working prefix. Combine is idempotent: re-running it rewrites
// the same artifact and re-deletes the same prefix.
type AggregatorService struct {
	objects ObjectRepository
}

func NewAggregatorService(objects ObjectRepository) *AggregatorService {
	return &AggregatorService{
		objects: objects,
	}
}

type pageResults struct {
	index    int
	hasAI    bool
	hasHuman bool
}

func (s *AggregatorService) Combine(ctx context.Context, sub domain.Submission, units []domain.PageUnit) error {
	pages, err := s.discover(ctx, sub, units)
	if err != nil {
		return err
	}

	// Page order is the numeric page index, not the lexicographic order of
	// the keys; double-digit page counts would interleave otherwise.
	sort.Slice(pages, func(i, j int) bool {
		return pages[i].index < pages[j].index
	})

	var out strings.Builder
	for _, page := range pages {
		base := sub.BasePageKey(page.index)
		out.WriteString("page " + strconv.Itoa(page.index+1) + ",-,-\n")
		if page.hasAI {
			if err := s.appendRows(ctx, &out, sub.Bucket, base+"/ai/output.json", sourceAI); err != nil {
				return err
			}
		}
		if page.hasHuman {
			if err := s.appendRows(ctx, &out, sub.Bucket, base+"/human/output.json", sourceHuman); err != nil {
				return err
			}
		}
	}

	finalKey := "complete/" + strings.ReplaceAll(sub.Key, "/", "-") + "-" + sub.ID + "/output.csv"
	if err := s.objects.Put(ctx, sub.Bucket, finalKey, []byte(out.String()), "text/csv"); err != nil {
		return err
	}
	log.Printf("Submission %s combined into s3://%s/%s", sub.ID, sub.Bucket, finalKey)

	return s.objects.DeletePrefix(ctx, sub.Bucket, domain.WorkingPrefix+sub.ID+"/")
}

// discover probes the fully known candidate key set instead of listing. A
// page with neither result does not appear in the artifact at all.
func (s *AggregatorService) discover(ctx context.Context, sub domain.Submission, units []domain.PageUnit) ([]pageResults, error) {
	var pages []pageResults
	for _, unit := range units {
		base := sub.BasePageKey(unit.PageIndex)

		hasAI, err := s.objects.Exists(ctx, sub.Bucket, base+"/ai/output.json")
		if err != nil {
			return nil, err
		}
		hasHuman, err := s.objects.Exists(ctx, sub.Bucket, base+"/human/output.json")
		if err != nil {
			return nil, err
		}

		if hasAI || hasHuman {
			pages = append(pages, pageResults{index: unit.PageIndex, hasAI: hasAI, hasHuman: hasHuman})
		}
	}
	return pages, nil
}

func (s *AggregatorService) appendRows(ctx context.Context, out *strings.Builder, bucket, key, source string) error {
	data, err := s.objects.Get(ctx, bucket, key)
	if err != nil {
		return err
	}

	var pairs []extract.Pair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return fmt.Errorf("malformed result at s3://%s/%s: %w", bucket, key, err)
	}

	for _, pair := range pairs {
		out.WriteString(sanitize(pair.Key) + "," + sanitize(pair.Value) + "," + source + "\n")
	}
	return nil
}

// sanitize strips commas so a key or value cannot break the row format.
// Lossy, kept for compatibility with downstream consumers of the CSV.
func sanitize(field string) string {
	return strings.ReplaceAll(field, ",", "")
}
