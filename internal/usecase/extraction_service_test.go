package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ector/backend/internal/domain"
	"github.com/ector/backend/internal/infrastructure/annotator"
	"github.com/ector/backend/internal/logger/loggertest"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data      map[string][]byte
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// fakeAnnotator returns a fixed segmentation regardless of input.
type fakeAnnotator struct {
	clauses []domain.Clause
	err     error
	calls   int
	lang    string
}

func (f *fakeAnnotator) Segment(ctx context.Context, text, language string) ([]domain.Clause, error) {
	f.calls++
	f.lang = language
	if f.err != nil {
		return nil, f.err
	}
	return f.clauses, nil
}

func newRuleService(t *testing.T, cfg ExtractionServiceConfig) *ExtractionService {
	t.Helper()
	store := defaultLexicons(t)
	return NewExtractionService(annotator.NewRuleAnnotator(store), store, nil, loggertest.New(t), cfg)
}

func price(v float64) *float64 {
	return &v
}

func TestExtract_Scenarios(t *testing.T) {
	svc := newRuleService(t, ExtractionServiceConfig{})

	testCases := []struct {
		name string
		lang string
		text string
		want *domain.ExtractionResult
	}{
		{
			name: "empty input",
			text: "",
			want: &domain.ExtractionResult{Products: []domain.ProductEntry{}},
		},
		{
			name: "whitespace input",
			text: " \n\t ",
			want: &domain.ExtractionResult{Products: []domain.ProductEntry{}},
		},
		{
			name: "trigger without product",
			text: "I want to buy.",
			want: &domain.ExtractionResult{Products: []domain.ProductEntry{}},
		},
		{
			name: "capitalized product",
			text: "I'm looking for a new laptop.",
			want: &domain.ExtractionResult{Products: []domain.ProductEntry{
				{Product: "New laptop"},
			}},
		},
		{
			name: "typographic apostrophe",
			text: "I’m looking for a new laptop.",
			want: &domain.ExtractionResult{Products: []domain.ProductEntry{
				{Product: "New laptop"},
			}},
		},
		{
			name: "price attaches to product",
			text: "I want a smartphone for 200 USD.",
			want: &domain.ExtractionResult{Products: []domain.ProductEntry{
				{Product: "Smartphone", Price: price(200), Currency: "usd"},
			}},
		},
		{
			name: "pure budget",
			text: "My budget is 300 USD.",
			want: &domain.ExtractionResult{
				Products: []domain.ProductEntry{},
				Budget:   &domain.BudgetEntry{Price: 300, Currency: "usd"},
			},
		},
		{
			name: "budget heuristic phrase",
			text: "I only have 150 eur.",
			want: &domain.ExtractionResult{
				Products: []domain.ProductEntry{},
				Budget:   &domain.BudgetEntry{Price: 150, Currency: "eur"},
			},
		},
		{
			name: "several products and a budget",
			text: "I'm looking for a big TV. I also need a gaming console. My budget is 1200 USD.",
			want: &domain.ExtractionResult{
				Products: []domain.ProductEntry{
					{Product: "Big TV"},
					{Product: "Gaming console"},
				},
				Budget: &domain.BudgetEntry{Price: 1200, Currency: "usd"},
			},
		},
		{
			name: "product and budget in separate clauses",
			text: "I'm looking for a camera. my budget is 500 usd.",
			want: &domain.ExtractionResult{
				Products: []domain.ProductEntry{{Product: "Camera"}},
				Budget:   &domain.BudgetEntry{Price: 500, Currency: "usd"},
			},
		},
		{
			name: "invalid money text",
			text: "My budget is abc or 12x34.",
			want: &domain.ExtractionResult{Products: []domain.ProductEntry{}},
		},
		{
			name: "first amount wins",
			text: "I want a laptop for 500 usd or 600 eur.",
			want: &domain.ExtractionResult{Products: []domain.ProductEntry{
				{Product: "Laptop", Price: price(500), Currency: "usd"},
			}},
		},
		{
			name: "price without currency",
			text: "I want a phone for 250",
			want: &domain.ExtractionResult{Products: []domain.ProductEntry{
				{Product: "Phone", Price: price(250)},
			}},
		},
		{
			name: "quantity is not the price",
			text: "I need 2 phones for 300",
			want: &domain.ExtractionResult{Products: []domain.ProductEntry{
				{Product: "2 phones", Price: price(300)},
			}},
		},
		{
			name: "model number is not a price",
			text: "I want an iPhone 15",
			want: &domain.ExtractionResult{Products: []domain.ProductEntry{
				{Product: "IPhone 15"},
			}},
		},
		{
			name: "bare quantity is not a price",
			text: "I need 2 phones",
			want: &domain.ExtractionResult{Products: []domain.ProductEntry{
				{Product: "2 phones"},
			}},
		},
		{
			name: "size is not a price",
			text: "I want a TV 55 inch",
			want: &domain.ExtractionResult{Products: []domain.ProductEntry{
				{Product: "TV 55 inch"},
			}},
		},
		{
			name: "trigger inside a word",
			text: "I need a recommendation for a laptop",
			want: &domain.ExtractionResult{Products: []domain.ProductEntry{
				{Product: "Recommendation for a laptop"},
			}},
		},
		{
			name: "sentences wrapped over lines",
			text: "\nHi, I'm looking for a laptop with a high-resolution screen and\n" +
				"fast processor at 150 usd max.\n" +
				"I also need a wireless mouse. Do you have any external monitors. i want also a green\n" +
				"Android IPhone.\n" +
				"And for all of that, i have a budget of 200 eur.\n",
			want: &domain.ExtractionResult{
				Products: []domain.ProductEntry{
					{Product: "Laptop with a high-resolution screen and fast processor", Price: price(150), Currency: "usd"},
					{Product: "Wireless mouse"},
					{Product: "External monitors"},
					{Product: "Green Android IPhone"},
				},
				Budget: &domain.BudgetEntry{Price: 200, Currency: "eur"},
			},
		},
		{
			name: "no deduplication",
			text: "I want a phone. I want a phone.",
			want: &domain.ExtractionResult{Products: []domain.ProductEntry{
				{Product: "Phone"},
				{Product: "Phone"},
			}},
		},
		{
			name: "small talk",
			text: "Hello, how are you?",
			want: &domain.ExtractionResult{Products: []domain.ProductEntry{}},
		},
		{
			name: "french",
			lang: "fr",
			text: "Je voudrais l'ordinateur portable pour 500 euros. Mon budget est de 900 euros.",
			want: &domain.ExtractionResult{
				Products: []domain.ProductEntry{
					{Product: "Ordinateur portable", Price: price(500), Currency: "eur"},
				},
				Budget: &domain.BudgetEntry{Price: 900, Currency: "eur"},
			},
		},
		{
			name: "french decimal comma",
			lang: "fr",
			text: "Je cherche un téléphone pour 1,5 euros",
			want: &domain.ExtractionResult{Products: []domain.ProductEntry{
				{Product: "Téléphone", Price: price(1.5), Currency: "eur"},
			}},
		},
		{
			name: "unsupported language falls back to english",
			lang: "de",
			text: "I want a phone",
			want: &domain.ExtractionResult{Products: []domain.ProductEntry{
				{Product: "Phone"},
			}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.Extract(context.Background(), tc.text, tc.lang)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtract_JSONShape(t *testing.T) {
	svc := newRuleService(t, ExtractionServiceConfig{})

	t.Run("omits currency and budget when absent", func(t *testing.T) {
		got, err := svc.Extract(context.Background(), "I want a phone for 250", "en")
		require.NoError(t, err)

		data, err := json.Marshal(got)
		require.NoError(t, err)
		assert.JSONEq(t, `{"products":[{"product":"Phone","price":250}]}`, string(data))
	})

	t.Run("empty input serializes an empty list", func(t *testing.T) {
		got, err := svc.Extract(context.Background(), "   ", "en")
		require.NoError(t, err)

		data, err := json.Marshal(got)
		require.NoError(t, err)
		assert.JSONEq(t, `{"products":[]}`, string(data))
	})
}

func TestExtract_BudgetPolicy(t *testing.T) {
	text := "My budget is 300 usd. Actually my budget is 400 usd."

	testCases := []struct {
		name   string
		policy domain.BudgetPolicy
		want   float64
	}{
		{name: "default is last wins", policy: "", want: 400},
		{name: "last wins", policy: domain.BudgetLastWins, want: 400},
		{name: "first wins", policy: domain.BudgetFirstWins, want: 300},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newRuleService(t, ExtractionServiceConfig{BudgetPolicy: tc.policy})
			got, err := svc.Extract(context.Background(), text, "en")
			require.NoError(t, err)
			require.NotNil(t, got.Budget)
			assert.Equal(t, tc.want, got.Budget.Price)
		})
	}
}

func TestExtract_FakeAnnotator(t *testing.T) {
	store := defaultLexicons(t)

	t.Run("prefers the annotator money span", func(t *testing.T) {
		fake := &fakeAnnotator{clauses: []domain.Clause{{
			Text: "I want 2 phones, around 300 dollars",
			Entities: []domain.Entity{
				{Kind: domain.EntityProduct, Text: "phones", Start: 9, End: 15},
				{Kind: domain.EntityMoney, Text: "300 dollars", Start: 24, End: 35},
			},
		}}}
		svc := NewExtractionService(fake, store, nil, nil, ExtractionServiceConfig{})

		got, err := svc.Extract(context.Background(), "ignored", "en")
		require.NoError(t, err)
		require.Len(t, got.Products, 1)
		assert.Equal(t, price(300), got.Products[0].Price)
		assert.Equal(t, "usd", got.Products[0].Currency)
	})

	t.Run("falls back to the clause when the span does not parse", func(t *testing.T) {
		fake := &fakeAnnotator{clauses: []domain.Clause{{
			Text: "My budget is five hundred dollars, so 500 usd",
			Entities: []domain.Entity{
				{Kind: domain.EntityMoney, Text: "five hundred dollars", Start: 13, End: 33},
			},
		}}}
		svc := NewExtractionService(fake, store, nil, nil, ExtractionServiceConfig{})

		got, err := svc.Extract(context.Background(), "ignored", "en")
		require.NoError(t, err)
		require.NotNil(t, got.Budget)
		assert.Equal(t, 500.0, got.Budget.Price)
	})

	t.Run("passes the resolved language", func(t *testing.T) {
		fake := &fakeAnnotator{}
		svc := NewExtractionService(fake, store, nil, nil, ExtractionServiceConfig{DefaultLanguage: "fr"})

		_, err := svc.Extract(context.Background(), "Bonjour", "")
		require.NoError(t, err)
		assert.Equal(t, "fr", fake.lang)

		_, err = svc.Extract(context.Background(), "Hello", "EN-us")
		require.NoError(t, err)
		assert.Equal(t, "en", fake.lang)
	})

	t.Run("skips the annotator for blank input", func(t *testing.T) {
		fake := &fakeAnnotator{}
		svc := NewExtractionService(fake, store, nil, nil, ExtractionServiceConfig{})

		got, err := svc.Extract(context.Background(), "  ", "en")
		require.NoError(t, err)
		assert.Empty(t, got.Products)
		assert.Zero(t, fake.calls)
	})
}

func TestExtract_AnnotatorErrors(t *testing.T) {
	store := defaultLexicons(t)

	testCases := []struct {
		name    string
		err     error
		wantErr error
	}{
		{
			name:    "plain error is reported as unavailable",
			err:     errors.New("connection refused"),
			wantErr: domain.ErrAnnotatorUnavailable,
		},
		{
			name:    "malformed response keeps its sentinel",
			err:     domain.ErrAnnotatorResponse,
			wantErr: domain.ErrAnnotatorResponse,
		},
		{
			name:    "throttling keeps its sentinel",
			err:     domain.ErrRateLimited,
			wantErr: domain.ErrRateLimited,
		},
		{
			name:    "deadline keeps its sentinel",
			err:     context.DeadlineExceeded,
			wantErr: context.DeadlineExceeded,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewExtractionService(&fakeAnnotator{err: tc.err}, store, nil, nil, ExtractionServiceConfig{})
			got, err := svc.Extract(context.Background(), "I want a phone", "en")
			assert.Nil(t, got)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestExtract_Cache(t *testing.T) {
	store := defaultLexicons(t)
	text := "I want a smartphone for 200 USD."

	t.Run("second call is served from cache", func(t *testing.T) {
		cache := NewMockCacheRepository()
		fake := &fakeAnnotator{clauses: []domain.Clause{{
			Text:     text,
			Entities: []domain.Entity{{Kind: domain.EntityProduct, Text: "smartphone", Start: 9, End: 19}},
		}}}
		svc := NewExtractionService(fake, store, cache, nil, ExtractionServiceConfig{CacheTTL: time.Minute})

		first, err := svc.Extract(context.Background(), text, "en")
		require.NoError(t, err)
		second, err := svc.Extract(context.Background(), text, "en")
		require.NoError(t, err)

		assert.Equal(t, 1, fake.calls)
		assert.Equal(t, first, second)
		assert.True(t, cache.setCalled)

		_, ok := cache.data[generateCacheKey("en", text)]
		assert.True(t, ok)
	})

	t.Run("cache errors do not fail extraction", func(t *testing.T) {
		cache := NewMockCacheRepository()
		cache.getError = domain.ErrCacheUnavailable
		cache.setError = domain.ErrCacheUnavailable
		svc := NewExtractionService(annotator.NewRuleAnnotator(store), store, cache, nil, ExtractionServiceConfig{})

		got, err := svc.Extract(context.Background(), text, "en")
		require.NoError(t, err)
		require.Len(t, got.Products, 1)
		assert.True(t, cache.getCalled)
	})

	t.Run("undecodable entry is a miss", func(t *testing.T) {
		cache := NewMockCacheRepository()
		cache.data[generateCacheKey("en", text)] = []byte("not json")
		svc := NewExtractionService(annotator.NewRuleAnnotator(store), store, cache, nil, ExtractionServiceConfig{})

		got, err := svc.Extract(context.Background(), text, "en")
		require.NoError(t, err)
		require.Len(t, got.Products, 1)
		assert.Equal(t, "Smartphone", got.Products[0].Product)
	})
}

func TestGenerateCacheKey(t *testing.T) {
	key := generateCacheKey("en", "I want a phone")
	assert.Regexp(t, `^extract:en:[0-9a-f]{64}$`, key)
	assert.NotEqual(t, key, generateCacheKey("fr", "I want a phone"))
	assert.Equal(t, key, generateCacheKey("en", "I want a phone"))
}
