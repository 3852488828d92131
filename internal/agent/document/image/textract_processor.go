package image

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/Bhavesh-Narvekar/AI-Study-Assistant/config"
)

// TextractAPI is the subset of the Textract client used here.
type TextractAPI interface {
	AnalyzeDocument(ctx context.Context, params *textract.AnalyzeDocumentInput, optFns ...func(*textract.Options)) (*textract.AnalyzeDocumentOutput, error)
}

// TextractOCR recognizes lines and tables with AWS Textract.
type TextractOCR struct {
	client        TextractAPI
	minConfidence float32
}

func NewTextractOCR(ctx context.Context, cfg config.TextractConfig) (*TextractOCR, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	return NewTextractOCRWithClient(textract.NewFromConfig(awsCfg), cfg.MinConfidence), nil
}

func NewTextractOCRWithClient(client TextractAPI, minConfidence float32) *TextractOCR {
	return &TextractOCR{client: client, minConfidence: minConfidence}
}

func (t *TextractOCR) Name() string { return "textract" }

func (t *TextractOCR) Recognize(ctx context.Context, data []byte) (string, error) {
	result, err := t.client.AnalyzeDocument(ctx, &textract.AnalyzeDocumentInput{
		Document:     &types.Document{Bytes: data},
		FeatureTypes: []types.FeatureType{types.FeatureTypeTables},
	})
	if err != nil {
		return "", fmt.Errorf("failed to analyze document: %w", err)
	}

	parts := []string{}
	if lines := t.lines(result.Blocks); len(lines) > 0 {
		parts = append(parts, strings.Join(lines, "\n"))
	}
	for _, table := range tables(result.Blocks) {
		parts = append(parts, table)
	}
	return strings.Join(parts, "\n\n"), nil
}

func (t *TextractOCR) lines(blocks []types.Block) []string {
	var out []string
	for _, block := range blocks {
		if block.BlockType == types.BlockTypeLine &&
			block.Text != nil &&
			aws.ToFloat32(block.Confidence) >= t.minConfidence {
			out = append(out, *block.Text)
		}
	}
	return out
}

// tables renders every TABLE block as pipe-separated rows.
func tables(blocks []types.Block) []string {
	byID := make(map[string]types.Block, len(blocks))
	for _, b := range blocks {
		if b.Id != nil {
			byID[*b.Id] = b
		}
	}

	var out []string
	for _, block := range blocks {
		if block.BlockType != types.BlockTypeTable {
			continue
		}

		var cells []types.Block
		rows, cols := 0, 0
		for _, id := range childIDs(block) {
			cell, ok := byID[id]
			if !ok || cell.BlockType != types.BlockTypeCell {
				continue
			}
			cells = append(cells, cell)
			rows = max(rows, int(aws.ToInt32(cell.RowIndex)))
			cols = max(cols, int(aws.ToInt32(cell.ColumnIndex)))
		}
		if rows == 0 || cols == 0 {
			continue
		}

		grid := make([][]string, rows)
		for i := range grid {
			grid[i] = make([]string, cols)
		}
		for _, cell := range cells {
			r, c := int(aws.ToInt32(cell.RowIndex))-1, int(aws.ToInt32(cell.ColumnIndex))-1
			if r < 0 || c < 0 {
				continue
			}
			grid[r][c] = cellText(cell, byID)
		}

		var b strings.Builder
		for i, row := range grid {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString("| " + strings.Join(row, " | ") + " |")
		}
		out = append(out, b.String())
	}
	return out
}

func cellText(cell types.Block, byID map[string]types.Block) string {
	var words []string
	for _, id := range childIDs(cell) {
		if w, ok := byID[id]; ok && w.Text != nil {
			words = append(words, *w.Text)
		}
	}
	return strings.Join(words, " ")
}

func childIDs(block types.Block) []string {
	var ids []string
	for _, rel := range block.Relationships {
		if rel.Type == types.RelationshipTypeChild {
			ids = append(ids, rel.Ids...)
		}
	}
	return ids
}

func (t *TextractOCR) Close() error {
	return nil
}
