package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestClassifyAttachmentSkipsModel(t *testing.T) {
	llm := &scriptedCompleter{intent: `{"isQuery": true, "confidence": 0.99, "queryType": "amount"}`}
	c := NewIntentClassifier(llm, 0.7, zap.NewNop())

	intent, err := c.Classify(context.Background(), "Quanto gastei esse mês?", true)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if intent.Route != RouteDocument {
		t.Errorf("media must route to documents, got %s", intent.Route)
	}
	if llm.count("intent") != 0 {
		t.Error("model should not be consulted when media is attached")
	}
}

func TestClassifyText(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		route     Route
		queryType QueryType
	}{
		{"confident query", `{"isQuery": true, "confidence": 0.92, "queryType": "amount"}`, RouteQuery, QueryTypeAmount},
		{"fenced reply", "```json\n{\"isQuery\": true, \"confidence\": 0.8, \"queryType\": \"Category\"}\n```", RouteQuery, QueryTypeCategory},
		{"at threshold", `{"isQuery": true, "confidence": 0.7, "queryType": "temporal"}`, RouteDocument, QueryTypeTemporal},
		{"below threshold", `{"isQuery": true, "confidence": 0.4, "queryType": "status"}`, RouteDocument, QueryTypeStatus},
		{"not a query", `{"isQuery": false, "confidence": 0.95, "queryType": "unknown"}`, RouteDocument, QueryTypeUnknown},
		{"unknown type", `{"isQuery": true, "confidence": 0.9, "queryType": "forecast"}`, RouteQuery, QueryTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewIntentClassifier(&scriptedCompleter{intent: tt.reply}, 0.7, zap.NewNop())
			intent, err := c.Classify(context.Background(), "Quanto gastei esse mês?", false)
			if err != nil {
				t.Fatalf("Classify failed: %v", err)
			}
			if intent.Route != tt.route || intent.QueryType != tt.queryType {
				t.Errorf("got %s/%s, want %s/%s", intent.Route, intent.QueryType, tt.route, tt.queryType)
			}
		})
	}
}

func TestClassifyEmptyText(t *testing.T) {
	llm := &scriptedCompleter{}
	c := NewIntentClassifier(llm, 0.7, zap.NewNop())

	intent, err := c.Classify(context.Background(), "   ", false)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if intent.Route != RouteDocument || llm.count("intent") != 0 {
		t.Errorf("empty text should route to documents without a model call, got %+v", intent)
	}
}

func TestClassifyErrors(t *testing.T) {
	for name, llm := range map[string]*scriptedCompleter{
		"model failure": {err: errors.New("timeout")},
		"garbage reply": {intent: "sim, é uma pergunta"},
	} {
		t.Run(name, func(t *testing.T) {
			c := NewIntentClassifier(llm, 0.7, zap.NewNop())
			if _, err := c.Classify(context.Background(), "Quanto gastei?", false); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
