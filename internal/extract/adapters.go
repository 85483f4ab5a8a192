package extract

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
)

// FromTextract adapts the automated analysis response (typed SDK blocks)
// into the normalized graph.
func FromTextract(blocks []types.Block) Document {
	doc := Document{Blocks: make([]Block, 0, len(blocks))}
	for _, b := range blocks {
		block := Block{
			Type: string(b.BlockType),
			ID:   aws.ToString(b.Id),
			Text: aws.ToString(b.Text),
		}
		for _, et := range b.EntityTypes {
			block.EntityTypes = append(block.EntityTypes, string(et))
		}
		for _, rel := range b.Relationships {
			block.Relationships = append(block.Relationships, Relationship{
				Type: string(rel.Type),
				IDs:  rel.Ids,
			})
		}
		doc.Blocks = append(doc.Blocks, block)
	}
	return doc
}

// humanDocument mirrors the human-review answer shape: the same graph as the
// automated response, but with lower-camel field names and a "blocks"
// container.
type humanDocument struct {
	Blocks []struct {
		BlockType     string   `json:"blockType"`
		ID            string   `json:"id"`
		Text          string   `json:"text"`
		EntityTypes   []string `json:"entityTypes"`
		Relationships []struct {
			Type string   `json:"type"`
			IDs  []string `json:"ids"`
		} `json:"relationships"`
	} `json:"blocks"`
}

// FromHumanAnswer adapts the raw human-review answer content into the
// normalized graph.
func FromHumanAnswer(raw []byte) (Document, error) {
	var human humanDocument
	if err := json.Unmarshal(raw, &human); err != nil {
		return Document{}, fmt.Errorf("failed to decode human answer content: %w", err)
	}

	doc := Document{Blocks: make([]Block, 0, len(human.Blocks))}
	for _, b := range human.Blocks {
		block := Block{
			Type:        b.BlockType,
			ID:          b.ID,
			Text:        b.Text,
			EntityTypes: b.EntityTypes,
		}
		for _, rel := range b.Relationships {
			block.Relationships = append(block.Relationships, Relationship{
				Type: rel.Type,
				IDs:  rel.IDs,
			})
		}
		doc.Blocks = append(doc.Blocks, block)
	}
	return doc, nil
}
