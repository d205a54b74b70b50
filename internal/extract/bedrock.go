package extract

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type bedrockConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockExtractor runs the fallback extraction against a Bedrock model via
// the Converse API.
type BedrockExtractor struct {
	api     bedrockConverseAPI
	modelID string
}

func NewBedrockExtractor(api bedrockConverseAPI, modelID string) (*BedrockExtractor, error) {
	if api == nil {
		return nil, errors.New("extract: bedrock converse client required")
	}
	if strings.TrimSpace(modelID) == "" {
		return nil, errors.New("extract: bedrock model id required")
	}
	return &BedrockExtractor{api: api, modelID: modelID}, nil
}

func (b *BedrockExtractor) Extract(ctx context.Context, input ExtractionInput) (*AIResult, error) {
	out, err := b.api.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(b.modelID),
		Messages: []brtypes.Message{{
			Role: brtypes.ConversationRoleUser,
			Content: []brtypes.ContentBlock{
				&brtypes.ContentBlockMemberText{Value: BuildPrompt(input)},
			},
		}},
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens:   aws.Int32(512),
			Temperature: aws.Float32(0),
		},
	})
	if err != nil {
		return nil, err
	}

	text, err := converseOutputText(out)
	if err != nil {
		return nil, err
	}
	return ParseAIReply(text)
}

func converseOutputText(out *bedrockruntime.ConverseOutput) (string, error) {
	if out == nil {
		return "", errors.New("extract: bedrock response is nil")
	}
	msgOut, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return "", errors.New("extract: bedrock response did not include a message output")
	}

	var builder strings.Builder
	for _, block := range msgOut.Value.Content {
		if textBlock, ok := block.(*brtypes.ContentBlockMemberText); ok {
			builder.WriteString(textBlock.Value)
		}
	}
	text := builder.String()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("extract: bedrock response contained no text content blocks")
	}
	return text, nil
}
