package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ector/backend/internal/domain"
	"github.com/ector/backend/internal/lexicon"
	"github.com/ector/backend/internal/logger"
	"github.com/ector/backend/internal/metrics"
	"github.com/ector/backend/internal/money"
	"github.com/ector/backend/internal/textproc"
)

const tracerName = "github.com/ector/backend/internal/usecase"

// ExtractionServiceConfig holds configuration for the extraction service
type ExtractionServiceConfig struct {
	DefaultLanguage    string
	BudgetPolicy       domain.BudgetPolicy
	CacheTTL           time.Duration
	EnableDebugLogging bool
}

// ExtractionService turns chat messages into purchase intents
type ExtractionService struct {
	annotator  domain.Annotator
	lexicons   *lexicon.Store
	cache      domain.CacheRepository
	classifier *SentenceClassifier
	normalizer *ProductNormalizer
	log        logger.Logger
	tracer     trace.Tracer

	defaultLanguage string
	budgetPolicy    domain.BudgetPolicy
	cacheTTL        time.Duration
}

// NewExtractionService creates a new extraction service with dependencies.
// cache may be nil to disable result caching.
func NewExtractionService(
	annotator domain.Annotator,
	lexicons *lexicon.Store,
	cache domain.CacheRepository,
	log logger.Logger,
	config ExtractionServiceConfig,
) *ExtractionService {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	policy := config.BudgetPolicy
	if !policy.Valid() {
		policy = domain.BudgetLastWins
	}

	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	return &ExtractionService{
		annotator:       annotator,
		lexicons:        lexicons,
		cache:           cache,
		classifier:      NewSentenceClassifier(),
		normalizer:      NewProductNormalizer(log, config.EnableDebugLogging),
		log:             log,
		tracer:          otel.Tracer(tracerName),
		defaultLanguage: lexicon.Resolve(config.DefaultLanguage),
		budgetPolicy:    policy,
		cacheTTL:        cacheTTL,
	}
}

// Extract finds the requested products and the budget in a chat message.
// Flow: normalize -> check cache -> segment -> classify/normalize clauses -> cache -> return
func (s *ExtractionService) Extract(ctx context.Context, text, language string) (*domain.ExtractionResult, error) {
	start := time.Now()

	lang := s.defaultLanguage
	if strings.TrimSpace(language) != "" {
		lang = lexicon.Resolve(language)
	}

	ctx, span := s.tracer.Start(ctx, "ExtractionService.Extract", trace.WithAttributes(
		attribute.String("language", lang),
		attribute.Int("text.length", len(text)),
	))
	defer span.End()
	defer func() {
		metrics.ExtractionDuration.WithLabelValues(lang).Observe(time.Since(start).Seconds())
	}()

	text = textproc.NormalizeApostrophes(text)
	if strings.TrimSpace(text) == "" {
		metrics.ExtractionsTotal.WithLabelValues(lang, metrics.OutcomeEmpty).Inc()
		return domain.NewExtractionResult(), nil
	}

	cacheKey := generateCacheKey(lang, text)

	// Try cache first
	if cached, ok := s.getFromCache(ctx, cacheKey); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		metrics.ExtractionsTotal.WithLabelValues(lang, metrics.OutcomeCached).Inc()
		return cached, nil
	}

	clauses, err := s.annotator.Segment(ctx, text, lang)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "segmentation failed")
		metrics.ExtractionsTotal.WithLabelValues(lang, metrics.OutcomeError).Inc()
		return nil, wrapAnnotatorError(err)
	}
	span.SetAttributes(attribute.Int("clauses", len(clauses)))

	result := s.assemble(clauses, s.lexicons.Get(lang))

	// Cache failures never fail an extraction
	if err := s.setInCache(ctx, cacheKey, result); err != nil {
		s.log.Warn("failed to cache extraction result", map[string]interface{}{
			"error": err.Error(),
			"key":   cacheKey,
		})
	}

	metrics.ExtractionsTotal.WithLabelValues(lang, metrics.OutcomeSuccess).Inc()
	return result, nil
}

// assemble walks the clauses in order and builds the result.
func (s *ExtractionService) assemble(clauses []domain.Clause, lex *lexicon.Lexicon) *domain.ExtractionResult {
	result := domain.NewExtractionResult()

	for _, clause := range clauses {
		kind := s.classifier.Classify(clause, lex)
		switch kind {
		case domain.ClauseBudget:
			s.applyBudget(result, clause)
		case domain.ClauseProductRequest:
			entry, ok := s.productEntry(clause, lex)
			if !ok {
				kind = domain.ClauseNone
				break
			}
			result.Products = append(result.Products, entry)
		}
		metrics.ClausesClassified.WithLabelValues(kind.String()).Inc()
	}

	return result
}

// applyBudget records a budget clause according to the budget policy. A
// budget clause without a parseable amount is ignored.
func (s *ExtractionService) applyBudget(result *domain.ExtractionResult, clause domain.Clause) {
	m, ok := clauseMoney(clause)
	if !ok {
		return
	}
	if result.Budget != nil && s.budgetPolicy == domain.BudgetFirstWins {
		return
	}
	result.Budget = &domain.BudgetEntry{Price: m.Amount, Currency: m.Currency}
}

func (s *ExtractionService) productEntry(clause domain.Clause, lex *lexicon.Lexicon) (domain.ProductEntry, bool) {
	name := s.normalizer.Normalize(clause.Text, lex)
	if name == "" {
		return domain.ProductEntry{}, false
	}

	entry := domain.ProductEntry{Product: name}
	if m, ok := productPrice(clause, lex); ok {
		price := m.Amount
		entry.Price = &price
		entry.Currency = m.Currency
	}
	return entry, true
}

// clauseMoney prefers the annotator's MONEY spans and falls back to the first
// amount in the clause. In a budget statement any number is the budget.
func clauseMoney(clause domain.Clause) (money.Money, bool) {
	if m, ok := spanMoney(clause); ok {
		return m, true
	}
	return money.Parse(clause.Text)
}

// productPrice is clauseMoney for product requests: without a MONEY span only
// an amount that reads as a price counts, so "an iPhone 15" has no price.
func productPrice(clause domain.Clause, lex *lexicon.Lexicon) (money.Money, bool) {
	if m, ok := spanMoney(clause); ok {
		return m, true
	}
	for _, m := range money.ScanAll(clause.Text) {
		if isPriceLike(clause.Text, m, lex) {
			return m.Money(), true
		}
	}
	return money.Money{}, false
}

func spanMoney(clause domain.Clause) (money.Money, bool) {
	for _, e := range clause.EntitiesOf(domain.EntityMoney) {
		if m, ok := money.Parse(e.Text); ok {
			return m, true
		}
	}
	return money.Money{}, false
}

func wrapAnnotatorError(err error) error {
	if errors.Is(err, domain.ErrAnnotatorUnavailable) ||
		errors.Is(err, domain.ErrAnnotatorResponse) ||
		errors.Is(err, domain.ErrRateLimited) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("segment text: %w", err)
	}
	return fmt.Errorf("%w: %w", domain.ErrAnnotatorUnavailable, err)
}

// generateCacheKey creates the cache key for a message.
// Format: "extract:{lang}:{sha256(text)}"
func generateCacheKey(lang, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("extract:%s:%s", lang, hex.EncodeToString(sum[:]))
}

// getFromCache retrieves a previous result. Any failure counts as a miss.
func (s *ExtractionService) getFromCache(ctx context.Context, key string) (*domain.ExtractionResult, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.log.Warn("cache lookup failed", map[string]interface{}{"error": err.Error()})
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	var result domain.ExtractionResult
	if err := json.Unmarshal(data, &result); err != nil {
		s.log.Warn("discarding undecodable cache entry", map[string]interface{}{
			"error": err.Error(),
			"key":   key,
		})
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	if result.Products == nil {
		result.Products = []domain.ProductEntry{}
	}

	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return &result, true
}

// setInCache stores an extraction result
func (s *ExtractionService) setInCache(ctx context.Context, key string, result *domain.ExtractionResult) error {
	if s.cache == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, data, s.cacheTTL)
}
