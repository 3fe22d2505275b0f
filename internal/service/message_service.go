package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expense-bot/internal/dto"
	"expense-bot/internal/query"
	"expense-bot/internal/repository"
	"expense-bot/pkg/logger"
	"expense-bot/pkg/metrics"

	"go.uber.org/zap"
)

// AttachmentFetcher downloads attachment bytes.
type AttachmentFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type QueryAnswer struct {
	Text        string
	Translation *query.Translation
	Result      *query.Result
}

// MessageService is the single entry point for inbound messages: it routes
// each one to the document pipeline or the query engine and always produces
// a reply text.
type MessageService struct {
	classifier  *IntentClassifier
	fetcher     AttachmentFetcher
	archiver    Archiver
	cascade     *OCRService
	extractor   *Extractor
	persistence *PersistenceService
	categories  *repository.CategoryRepository
	translator  *Translator
	executor    *Executor
	synth       *Synthesizer
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

type MessageServiceDeps struct {
	Classifier  *IntentClassifier
	Fetcher     AttachmentFetcher
	Archiver    Archiver // optional
	Cascade     *OCRService
	Extractor   *Extractor
	Persistence *PersistenceService
	Categories  *repository.CategoryRepository
	Translator  *Translator
	Executor    *Executor
	Synthesizer *Synthesizer
	Metrics     *metrics.Metrics
}

func NewMessageService(deps MessageServiceDeps, logger *zap.Logger) *MessageService {
	synth := deps.Synthesizer
	if synth == nil {
		synth = NewSynthesizer()
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}
	return &MessageService{
		classifier:  deps.Classifier,
		fetcher:     deps.Fetcher,
		archiver:    deps.Archiver,
		cascade:     deps.Cascade,
		extractor:   deps.Extractor,
		persistence: deps.Persistence,
		categories:  deps.Categories,
		translator:  deps.Translator,
		executor:    deps.Executor,
		synth:       synth,
		metrics:     m,
		logger:      logger,
	}
}

// Handle processes one message and returns the reply. Errors never escape:
// each is logged, counted and turned into a fixed apology.
func (s *MessageService) Handle(ctx context.Context, msg dto.InboundMessage) string {
	start := time.Now()
	log := logger.ForMessage(s.logger, msg.ID, msg.From)

	route := "unknown"
	defer func() {
		s.metrics.MessageDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}()

	intent, err := s.classifier.Classify(ctx, msg.Body, msg.HasAttachments())
	if err != nil {
		route = "error"
		return s.fail(log, "intent", err)
	}

	switch {
	case intent.Route == RouteQuery:
		route = "query"
		answer, err := s.AnswerQuestion(ctx, msg.From, msg.Body, intent.QueryType)
		if err != nil {
			return s.fail(log, "query", err)
		}
		return answer.Text

	case msg.HasAttachments():
		route = "document"
		return s.processDocuments(ctx, log, msg)

	default:
		route = "other"
		log.Info("Message is neither a query nor a document")
		return s.synth.Received()
	}
}

// Ask answers a question received outside the message channel. The text is
// always treated as a query; the classifier only contributes the query type.
func (s *MessageService) Ask(ctx context.Context, from, question string) (*QueryAnswer, error) {
	queryType := QueryTypeUnknown
	intent, err := s.classifier.Classify(ctx, question, false)
	if err != nil {
		s.logger.Warn("Intent classification failed, using default template", zap.Error(err))
	} else {
		queryType = intent.QueryType
	}

	answer, err := s.AnswerQuestion(ctx, from, question, queryType)
	if err != nil {
		s.record(s.logger, "api_query", err)
		return nil, err
	}
	return answer, nil
}

// AnswerQuestion runs the query path for an already classified question.
func (s *MessageService) AnswerQuestion(ctx context.Context, from, question string, queryType QueryType) (*QueryAnswer, error) {
	user, err := s.persistence.ResolveUser(ctx, from)
	if err != nil {
		return nil, err
	}

	names, err := s.categories.ListNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load category vocabulary: %w", err)
	}

	tr, err := s.translator.Translate(ctx, question, names, queryType)
	if err != nil {
		return nil, err
	}

	result, err := s.executor.Execute(ctx, tr.Spec.BindUser(user.ID), user.ID)
	if err != nil {
		return nil, err
	}
	s.metrics.QueriesExecuted.WithLabelValues(string(tr.Spec.Kind)).Inc()

	return &QueryAnswer{
		Text:        s.synth.RenderQuery(result, tr),
		Translation: tr,
		Result:      result,
	}, nil
}

// processDocuments handles attachments strictly in order. The first failure
// stops the batch; documents committed before it stay committed and are
// reported together with the apology.
func (s *MessageService) processDocuments(ctx context.Context, log *zap.Logger, msg dto.InboundMessage) string {
	var saved []*SavedExpense
	for i, att := range msg.Attachments {
		sv, err := s.processAttachment(ctx, log, msg.From, att)
		if err != nil {
			s.record(log.With(zap.Int("attachment", i)), "document", err)
			return s.synth.RenderDocuments(saved, err)
		}
		saved = append(saved, sv)
	}
	return s.synth.RenderDocuments(saved, nil)
}

func (s *MessageService) processAttachment(ctx context.Context, log *zap.Logger, from string, att dto.Attachment) (*SavedExpense, error) {
	data, err := s.fetcher.Fetch(ctx, att.URL)
	if err != nil {
		return nil, err
	}

	archiveURI := ""
	if s.archiver != nil {
		uri, err := s.archiver.Store(ctx, data, att.ContentType)
		if err != nil {
			log.Warn("Failed to archive attachment", zap.Error(err))
		} else {
			archiveURI = uri
		}
	}

	extraction, err := s.cascade.Extract(ctx, data, att.ContentType)
	if err != nil {
		return nil, err
	}

	extracted, err := s.extractor.Extract(ctx, extraction.Text)
	if err != nil {
		return nil, err
	}

	saved, err := s.persistence.Persist(ctx, PersistRequest{
		Phone:      from,
		SourceURL:  att.URL,
		ArchiveURI: archiveURI,
		Kind:       extraction.Kind,
		RawText:    extraction.Text,
		Document:   extracted,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.DocumentsProcessed.WithLabelValues(string(extraction.Kind)).Inc()
	return saved, nil
}

func (s *MessageService) fail(log *zap.Logger, stage string, err error) string {
	s.record(log, stage, err)
	return s.synth.Apology(err)
}

// record logs and counts a recovered error. Unexpected errors are logged at
// error level so they surface in alerting.
func (s *MessageService) record(log *zap.Logger, stage string, err error) {
	kind := errorKind(err)
	s.metrics.PipelineErrors.WithLabelValues(kind).Inc()

	fields := []zap.Field{zap.String("stage", stage), zap.String("error_kind", kind), zap.Error(err)}
	if kind == "unexpected" {
		log.Error("Message handling failed", fields...)
		return
	}
	log.Warn("Message handling failed", fields...)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrRetrieval):
		return "retrieval"
	case errors.Is(err, ErrExtraction):
		return "extraction"
	case errors.Is(err, ErrOCRProcessing):
		return "ocr_processing"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrExecution):
		return "execution"
	default:
		return "unexpected"
	}
}
