// Package model provides the Amazon Bedrock client for cloud LLM access.
package model

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	apperrors "github.com/logbook-ai/logbook/internal/errors"
)

// BedrockAPI is the subset of the bedrockruntime client the backend uses.
type BedrockAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockConfig configures the Bedrock client.
type BedrockConfig struct {
	Region string
	Model  string // e.g., "amazon.nova-lite-v1:0"
}

// BedrockClient implements Backend using the Bedrock runtime.
// Chat and tool use go through Converse; requests carrying audio go through
// InvokeModel with a messages-v1 body.
type BedrockClient struct {
	cfg *BedrockConfig
	api BedrockAPI
}

// NewBedrockClient creates a client using the default AWS credential chain.
func NewBedrockClient(ctx context.Context, cfg *BedrockConfig) (*BedrockClient, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, apperrors.NewBuilder(apperrors.CodeConfigInvalid, "failed to load AWS configuration").
			Config().
			Wrap(err).
			WithSuggestion("Check AWS_PROFILE or AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY").
			Build()
	}
	return NewBedrockClientWithAPI(cfg, bedrockruntime.NewFromConfig(awsCfg)), nil
}

// NewBedrockClientWithAPI creates a client around an existing runtime API.
func NewBedrockClientWithAPI(cfg *BedrockConfig, api BedrockAPI) *BedrockClient {
	return &BedrockClient{cfg: cfg, api: api}
}

// Send runs one inference round on Bedrock.
func (c *BedrockClient) Send(ctx context.Context, req *Request) (*Response, error) {
	if c == nil || c.api == nil {
		return nil, apperrors.New(apperrors.CodeModelUnavailable, "bedrock client not initialized", apperrors.CategoryConfig)
	}
	if req.HasAudio() {
		return c.invoke(ctx, req)
	}
	return c.converse(ctx, req)
}

func (c *BedrockClient) converse(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	// Converse rejects toolUse and toolResult blocks without a toolConfig, so
	// a tool-less request carries earlier tool rounds as plain text.
	system, messages := toBedrockMessages(req.Messages, len(req.Tools) > 0)
	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(c.cfg.Model),
		Messages: messages,
		System:   system,
		InferenceConfig: &types.InferenceConfiguration{
			Temperature: aws.Float32(float32(req.Temperature)),
		},
	}
	if req.MaxTokens > 0 {
		input.InferenceConfig.MaxTokens = aws.Int32(int32(req.MaxTokens))
	}
	if len(req.Tools) > 0 {
		input.ToolConfig = &types.ToolConfiguration{Tools: toBedrockTools(req.Tools)}
	}

	out, err := c.api.Converse(ctx, input)
	if err != nil {
		return nil, c.unavailable(err)
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return nil, apperrors.New(apperrors.CodeModelInvalidResponse, "converse response contained no message", apperrors.CategoryExternal)
	}

	resp := &Response{Model: c.cfg.Model}
	var texts []string
	for _, block := range msg.Value.Content {
		switch b := block.(type) {
		case *types.ContentBlockMemberText:
			texts = append(texts, b.Value)
		case *types.ContentBlockMemberToolUse:
			args, err := documentToMap(b.Value.Input)
			if err != nil {
				return nil, apperrors.Wrap(err, apperrors.CodeModelInvalidResponse, "failed to decode tool input", apperrors.CategoryExternal)
			}
			resp.ToolCalls = append(resp.ToolCalls, ToolCall{
				ID:    aws.ToString(b.Value.ToolUseId),
				Name:  aws.ToString(b.Value.Name),
				Input: args,
			})
		default:
			// reasoning, citations and guard content are not part of the answer
		}
	}
	resp.Text = joinParts(texts)

	if out.Usage != nil {
		resp.TokensUsed = int(aws.ToInt32(out.Usage.TotalTokens))
	}
	resp.DurationMs = time.Since(start).Milliseconds()
	return resp, nil
}

func (c *BedrockClient) invoke(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	body := novaRequest{
		SchemaVersion:   "messages-v1",
		InferenceConfig: novaInference{Temperature: req.Temperature},
	}
	if req.MaxTokens > 0 {
		body.InferenceConfig.MaxTokens = req.MaxTokens
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			body.System = append(body.System, map[string]any{"text": m.Content})
		case RoleUser, RoleAssistant:
			nm := novaMessage{Role: string(m.Role)}
			if m.Content != "" {
				nm.Content = append(nm.Content, map[string]any{"text": m.Content})
			}
			if m.Audio != nil {
				nm.Content = append(nm.Content, map[string]any{
					"audio": map[string]any{
						"format": m.Audio.Format,
						"source": map[string]any{"bytes": base64.StdEncoding.EncodeToString(m.Audio.Data)},
					},
				})
			}
			body.Messages = append(body.Messages, nm)
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeModelInvalidResponse, "failed to marshal request", apperrors.CategorySystem)
	}

	out, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.cfg.Model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return nil, c.unavailable(err)
	}

	text, err := ContentText(out.Body)
	if err != nil {
		return nil, err
	}

	var usage struct {
		Usage struct {
			TotalTokens int `json:"totalTokens"`
		} `json:"usage"`
	}
	_ = json.Unmarshal(out.Body, &usage)

	return &Response{
		Text:       text,
		Model:      c.cfg.Model,
		TokensUsed: usage.Usage.TotalTokens,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

func (c *BedrockClient) unavailable(err error) error {
	return apperrors.NewBuilder(apperrors.CodeModelUnavailable, "bedrock request failed").
		External().
		Wrap(err).
		WithSuggestion("Check your AWS credentials").
		WithSuggestion(fmt.Sprintf("Verify model access for %s is enabled in %s", c.cfg.Model, c.cfg.Region)).
		Build()
}

// Name returns the model name.
func (c *BedrockClient) Name() string {
	if c.cfg != nil && c.cfg.Model != "" {
		return c.cfg.Model
	}
	return "bedrock"
}

// IsLocal returns false (Bedrock is cloud).
func (c *BedrockClient) IsLocal() bool {
	return false
}

// WithModel returns a client for another model in the same region.
func (c *BedrockClient) WithModel(model string) Backend {
	cfg := *c.cfg
	cfg.Model = model
	return &BedrockClient{cfg: &cfg, api: c.api}
}

// toBedrockMessages splits out system prompts and folds consecutive tool
// results into a single user turn, as Converse requires. With toolBlocks
// false, tool calls and results are rendered as text instead.
func toBedrockMessages(messages []Message, toolBlocks bool) ([]types.SystemContentBlock, []types.Message) {
	var system []types.SystemContentBlock
	var out []types.Message
	lastWasTool := false

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, &types.SystemContentBlockMemberText{Value: m.Content})
			lastWasTool = false

		case RoleUser:
			out = append(out, types.Message{
				Role:    types.ConversationRoleUser,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: m.Content}},
			})
			lastWasTool = false

		case RoleAssistant:
			var content []types.ContentBlock
			if m.Content != "" {
				content = append(content, &types.ContentBlockMemberText{Value: m.Content})
			}
			for _, tc := range m.ToolCalls {
				if !toolBlocks {
					content = append(content, &types.ContentBlockMemberText{Value: toolCallText(tc)})
					continue
				}
				content = append(content, &types.ContentBlockMemberToolUse{Value: types.ToolUseBlock{
					ToolUseId: aws.String(tc.ID),
					Name:      aws.String(tc.Name),
					Input:     document.NewLazyDocument(tc.Input),
				}})
			}
			out = append(out, types.Message{Role: types.ConversationRoleAssistant, Content: content})
			lastWasTool = false

		case RoleTool:
			var block types.ContentBlock
			if toolBlocks {
				status := types.ToolResultStatusSuccess
				if m.IsError {
					status = types.ToolResultStatusError
				}
				block = &types.ContentBlockMemberToolResult{Value: types.ToolResultBlock{
					ToolUseId: aws.String(m.ToolCallID),
					Content:   []types.ToolResultContentBlock{&types.ToolResultContentBlockMemberText{Value: m.Content}},
					Status:    status,
				}}
			} else {
				block = &types.ContentBlockMemberText{Value: fmt.Sprintf("Result of %s: %s", nonEmptyName(m.ToolName), m.Content)}
			}
			if lastWasTool {
				last := &out[len(out)-1]
				last.Content = append(last.Content, block)
			} else {
				out = append(out, types.Message{Role: types.ConversationRoleUser, Content: []types.ContentBlock{block}})
			}
			lastWasTool = true
		}
	}

	return system, out
}

func toolCallText(tc ToolCall) string {
	args, err := json.Marshal(tc.Input)
	if err != nil || len(tc.Input) == 0 {
		args = []byte("{}")
	}
	return fmt.Sprintf("Called %s with %s", nonEmptyName(tc.Name), args)
}

func nonEmptyName(name string) string {
	if name == "" {
		return "tool"
	}
	return name
}

func toBedrockTools(tools []Tool) []types.Tool {
	out := make([]types.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, &types.ToolMemberToolSpec{Value: types.ToolSpecification{
			Name:        aws.String(t.Name),
			Description: aws.String(t.Description),
			InputSchema: &types.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(t.Parameters)},
		}})
	}
	return out
}

func documentToMap(doc document.Interface) (map[string]any, error) {
	args := map[string]any{}
	if doc == nil {
		return args, nil
	}
	raw, err := doc.MarshalSmithyDocument()
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	return args, nil
}

// ============================================================
// InvokeModel messages-v1 Types
// ============================================================

type novaRequest struct {
	SchemaVersion   string           `json:"schemaVersion"`
	System          []map[string]any `json:"system,omitempty"`
	Messages        []novaMessage    `json:"messages"`
	InferenceConfig novaInference    `json:"inferenceConfig"`
}

type novaMessage struct {
	Role    string           `json:"role"`
	Content []map[string]any `json:"content"`
}

type novaInference struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens,omitempty"`
}
