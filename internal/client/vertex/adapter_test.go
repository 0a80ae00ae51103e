package vertexclient

import (
	"testing"

	"cloud.google.com/go/vertexai/genai"

	"github.com/GregMSThompson/expense-backend/internal/dto"
	"github.com/GregMSThompson/expense-backend/pkg/helpers"
)

func TestToGenaiContents(t *testing.T) {
	contents, err := toGenaiContents([]dto.VertexContent{
		{Role: "user", Parts: []dto.VertexPart{{Text: helpers.Ptr("hi")}}},
		{Role: "model", Parts: []dto.VertexPart{{FunctionCall: &dto.VertexToolCall{Name: "get_budget_alerts"}}}},
		{Role: "user", Parts: []dto.VertexPart{{FunctionResponse: &dto.VertexToolResult{Name: "get_budget_alerts", Response: map[string]any{"alerts": []any{}}}}}},
	})
	if err != nil {
		t.Fatalf("toGenaiContents error: %v", err)
	}
	if len(contents) != 3 || contents[1].Role != "model" {
		t.Fatalf("unexpected contents: %+v", contents)
	}
	if _, ok := contents[0].Parts[0].(genai.Text); !ok {
		t.Fatalf("expected text part, got %T", contents[0].Parts[0])
	}
	if fc, ok := contents[1].Parts[0].(genai.FunctionCall); !ok || fc.Name != "get_budget_alerts" {
		t.Fatalf("expected function call part, got %#v", contents[1].Parts[0])
	}
	if _, ok := contents[2].Parts[0].(genai.FunctionResponse); !ok {
		t.Fatalf("expected function response part, got %T", contents[2].Parts[0])
	}
}

func TestToGenaiPartsRejectsEmpty(t *testing.T) {
	if _, err := toGenaiParts([]dto.VertexPart{{}}); err == nil {
		t.Fatalf("expected error for empty parts")
	}
}

func TestToGenaiMode(t *testing.T) {
	cases := map[dto.FunctionCallingMode]genai.FunctionCallingMode{
		dto.FunctionCallingModeAuto: genai.FunctionCallingAuto,
		dto.FunctionCallingModeAny:  genai.FunctionCallingAny,
		dto.FunctionCallingModeNone: genai.FunctionCallingNone,
		"":                          genai.FunctionCallingAuto,
	}
	for in, want := range cases {
		if got := toGenaiMode(in); got != want {
			t.Fatalf("toGenaiMode(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseContentResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text("Checking "),
				genai.Text("budgets"),
				genai.FunctionCall{Name: "get_budget_status", Args: map[string]any{"month": float64(3)}},
			}},
		}},
	}

	text, calls := parseContentResponse(resp)
	if text != "Checking budgets" {
		t.Fatalf("text = %q", text)
	}
	if len(calls) != 1 || calls[0].Name != "get_budget_status" || calls[0].Args["month"] != float64(3) {
		t.Fatalf("unexpected calls: %+v", calls)
	}

	if text, calls := parseContentResponse(nil); text != "" || calls != nil {
		t.Fatalf("nil response should parse to nothing")
	}
}

func TestToGenaiSchema(t *testing.T) {
	schema := toGenaiSchema(&dto.VertexSchema{
		Type: "object",
		Properties: map[string]*dto.VertexSchema{
			"type":  {Type: "string", Enum: []string{"income", "expense"}},
			"limit": {Type: "integer"},
		},
		Required: []string{"type"},
	})
	if schema.Type != genai.TypeObject || len(schema.Properties) != 2 {
		t.Fatalf("unexpected schema: %+v", schema)
	}
	if schema.Properties["limit"].Type != genai.TypeInteger || len(schema.Properties["type"].Enum) != 2 {
		t.Fatalf("unexpected properties: %+v", schema.Properties)
	}
	if toGenaiSchema(nil) != nil {
		t.Fatalf("nil schema should stay nil")
	}
}
