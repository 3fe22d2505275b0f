package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type Route string

const (
	RouteDocument Route = "document"
	RouteQuery    Route = "query"
)

type QueryType string

const (
	QueryTypeAmount   QueryType = "amount"
	QueryTypeTemporal QueryType = "temporal"
	QueryTypeCategory QueryType = "category"
	QueryTypeStatus   QueryType = "status"
	QueryTypeDocument QueryType = "document"
	QueryTypeUnknown  QueryType = "unknown"
)

func parseQueryType(s string) QueryType {
	switch t := QueryType(strings.ToLower(strings.TrimSpace(s))); t {
	case QueryTypeAmount, QueryTypeTemporal, QueryTypeCategory, QueryTypeStatus, QueryTypeDocument:
		return t
	}
	return QueryTypeUnknown
}

type Intent struct {
	Route      Route
	Confidence float64
	QueryType  QueryType
}

// IntentClassifier routes a message to the document pipeline or the query
// engine. Media always wins; text is classified by the model and routed to
// the query engine only above the confidence threshold.
type IntentClassifier struct {
	llm       Completer
	threshold float64
	logger    *zap.Logger
}

func NewIntentClassifier(llm Completer, threshold float64, logger *zap.Logger) *IntentClassifier {
	return &IntentClassifier{
		llm:       llm,
		threshold: threshold,
		logger:    logger,
	}
}

func (c *IntentClassifier) Classify(ctx context.Context, text string, hasAttachment bool) (*Intent, error) {
	if hasAttachment {
		return &Intent{Route: RouteDocument, Confidence: 1, QueryType: QueryTypeUnknown}, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return &Intent{Route: RouteDocument, QueryType: QueryTypeUnknown}, nil
	}

	content, err := c.llm.Complete(ctx, intentInstruction, text)
	if err != nil {
		return nil, fmt.Errorf("failed to classify intent: %w", err)
	}

	var raw struct {
		IsQuery    bool    `json:"isQuery"`
		Confidence float64 `json:"confidence"`
		QueryType  string  `json:"queryType"`
	}
	if err := decodeJSONObject(content, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode intent: %w", err)
	}

	intent := &Intent{
		Route:      RouteDocument,
		Confidence: raw.Confidence,
		QueryType:  parseQueryType(raw.QueryType),
	}
	if raw.IsQuery && raw.Confidence > c.threshold {
		intent.Route = RouteQuery
	}

	c.logger.Debug("Intent classified",
		zap.String("route", string(intent.Route)),
		zap.Float64("confidence", intent.Confidence),
		zap.String("query_type", string(intent.QueryType)),
	)
	return intent, nil
}
