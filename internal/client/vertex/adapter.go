package vertexclient

import (
	"context"
	"log/slog"

	"cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"
	"cloud.google.com/go/vertexai/genai"

	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/internal/errs"
)

type Adapter struct {
	client *genai.Client
	model  string
	log    *slog.Logger
}

func NewAdapter(ctx context.Context, log *slog.Logger, projectID, region, model string) (*Adapter, error) {
	client, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, errs.NewExternalServiceError("vertex", "failed to create client", false, err)
	}

	return &Adapter{
		client: client,
		model:  model,
		log:    log,
	}, nil
}

func (a *Adapter) Close() error {
	err := a.client.Close()
	if err != nil && a.log != nil {
		a.log.Error("vertex adapter close failed", "error", err)
	}
	return err
}

func (a *Adapter) GenerateContent(ctx context.Context, req dto.VertexGenerateRequest) (dto.VertexGenerateResponse, error) {
	out := dto.VertexGenerateResponse{}

	modelName := req.Model
	if modelName == "" {
		modelName = a.model
	}
	if modelName == "" {
		return out, errs.NewValidationError("vertex model is required")
	}

	model := a.client.GenerativeModel(modelName)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}
	if req.Temperature != nil {
		model.SetTemperature(*req.Temperature)
	}
	if req.MaxOutputTokens != nil {
		model.SetMaxOutputTokens(*req.MaxOutputTokens)
	}
	if len(req.Tools) > 0 {
		model.Tools = toGenaiTools(req.Tools)
	}

	if req.ToolConfig != nil {
		model.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: toGenaiMode(req.ToolConfig.Mode)},
		}
	}

	if len(req.Contents) == 0 {
		return out, errs.NewValidationError("vertex generate request has no content")
	}
	history, err := toGenaiContents(req.Contents[:len(req.Contents)-1])
	if err != nil {
		return out, err
	}
	last, err := toGenaiParts(req.Contents[len(req.Contents)-1].Parts)
	if err != nil {
		return out, err
	}

	chat := model.StartChat()
	chat.History = history
	resp, err := chat.SendMessage(ctx, last...)
	if err != nil {
		return out, errs.NewExternalServiceError("vertex", "generate content failed", true, err)
	}
	if isMalformedCall(resp) {
		return out, errs.NewMalformedFunctionCallError()
	}

	out.Raw = resp
	out.Text, out.ToolCalls = parseContentResponse(resp)
	return out, nil
}

func toGenaiContents(contents []dto.VertexContent) ([]*genai.Content, error) {
	out := make([]*genai.Content, 0, len(contents))
	for _, c := range contents {
		parts, err := toGenaiParts(c.Parts)
		if err != nil {
			return nil, err
		}
		out = append(out, &genai.Content{Role: c.Role, Parts: parts})
	}
	return out, nil
}

func toGenaiParts(parts []dto.VertexPart) ([]genai.Part, error) {
	out := make([]genai.Part, 0, len(parts))
	for _, p := range parts {
		switch {
		case p.Text != nil:
			out = append(out, genai.Text(*p.Text))
		case p.FunctionCall != nil:
			out = append(out, genai.FunctionCall{Name: p.FunctionCall.Name, Args: p.FunctionCall.Args})
		case p.FunctionResponse != nil:
			out = append(out, genai.FunctionResponse{Name: p.FunctionResponse.Name, Response: p.FunctionResponse.Response})
		}
	}
	if len(out) == 0 {
		return nil, errs.NewValidationError("vertex content has no parts")
	}
	return out, nil
}

func toGenaiMode(mode dto.FunctionCallingMode) genai.FunctionCallingMode {
	switch mode {
	case dto.FunctionCallingModeAny:
		return genai.FunctionCallingAny
	case dto.FunctionCallingModeNone:
		return genai.FunctionCallingNone
	default:
		return genai.FunctionCallingAuto
	}
}

func isMalformedCall(resp *genai.GenerateContentResponse) bool {
	if resp == nil {
		return false
	}
	for _, c := range resp.Candidates {
		if int32(c.FinishReason) == int32(aiplatformpb.Candidate_MALFORMED_FUNCTION_CALL) {
			return true
		}
	}
	return false
}

func parseContentResponse(resp *genai.GenerateContentResponse) (string, []dto.VertexToolCall) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", nil
	}

	var text string
	var calls []dto.VertexToolCall
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			switch p := part.(type) {
			case genai.Text:
				text += string(p)
			case genai.FunctionCall:
				calls = append(calls, dto.VertexToolCall{Name: p.Name, Args: p.Args})
			case *genai.FunctionCall:
				calls = append(calls, dto.VertexToolCall{
					Name: p.Name,
					Args: p.Args,
				})
			}
		}
	}

	return text, calls
}

func toGenaiTools(tools []dto.VertexTool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  toGenaiSchema(tool.Parameters),
		})
	}

	return []*genai.Tool{
		{FunctionDeclarations: decls},
	}
}

func toGenaiSchema(schema *dto.VertexSchema) *genai.Schema {
	if schema == nil {
		return nil
	}

	out := &genai.Schema{
		Type:        toGenaiType(schema.Type),
		Description: schema.Description,
		Enum:        schema.Enum,
		Required:    schema.Required,
	}

	if schema.Items != nil {
		out.Items = toGenaiSchema(schema.Items)
	}
	if len(schema.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(schema.Properties))
		for key, value := range schema.Properties {
			out.Properties[key] = toGenaiSchema(value)
		}
	}

	return out
}

func toGenaiType(schemaType string) genai.Type {
	switch schemaType {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeUnspecified
	}
}
