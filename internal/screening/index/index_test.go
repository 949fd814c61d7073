package index

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchlist/internal/screening/models"
	"watchlist/internal/screening/store/subject"
	"watchlist/pkg/platform/circuit"
)

func TestCandidateLimit(t *testing.T) {
	tests := []struct {
		pageSize int
		expected int
	}{
		{pageSize: 1, expected: 100},
		{pageSize: 10, expected: 100},
		{pageSize: 15, expected: 150},
		{pageSize: 50, expected: 500},
		{pageSize: 1000, expected: 500},
		{pageSize: math.MaxInt, expected: 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, CandidateLimit(tt.pageSize), "page size %d", tt.pageSize)
	}
}

func TestTypeVocabulary(t *testing.T) {
	assert.Equal(t, []string{"Individual", "Person", "individual", "person"}, TypeVocabulary(models.SubjectIndividual))
	assert.Contains(t, TypeVocabulary(models.SubjectVessel), "Ship")
	assert.Contains(t, TypeVocabulary(models.SubjectEntity), "Organization")
	assert.Nil(t, TypeVocabulary("aircraft"))

	v := TypeVocabulary(models.SubjectEntity)
	v[0] = "mutated"
	assert.Equal(t, "Entity", TypeVocabulary(models.SubjectEntity)[0])
}

func TestFilterMatches(t *testing.T) {
	s := models.Subject{Source: "OFAC", SubjectType: "Person", IsWhitelisted: true}

	assert.True(t, Filter{}.Matches(s))
	assert.False(t, Filter{ExcludeWhitelisted: true}.Matches(s))
	assert.True(t, Filter{SubjectTypes: TypeVocabulary(models.SubjectIndividual)}.Matches(s))
	assert.False(t, Filter{SubjectTypes: TypeVocabulary(models.SubjectEntity)}.Matches(s))
	assert.False(t, Filter{Sources: []string{"UN", "EU"}}.Matches(s))
	assert.True(t, Filter{Sources: []string{"OFAC"}}.Matches(s))
}

func TestPrefixQuery(t *testing.T) {
	assert.Equal(t, "ivan:* | petrov:*", PrefixQuery("Ivan  PETROV!"))
	assert.Equal(t, "o:* | neil:*", PrefixQuery("O'Neil"))
	assert.Equal(t, "", PrefixQuery(" & | ! "))
}

func TestCacheKey(t *testing.T) {
	a := Query{Text: "Ivan Petrov", Filter: Filter{Sources: []string{"UN", "EU"}, ExcludeWhitelisted: true}, Limit: 100}
	b := Query{Text: "ivan   petrov", Filter: Filter{Sources: []string{"EU", "UN"}, ExcludeWhitelisted: true}, Limit: 100}
	c := Query{Text: "ivan petrov", Filter: Filter{Sources: []string{"EU", "UN"}}, Limit: 100}

	assert.Equal(t, CacheKey(a), CacheKey(b))
	assert.NotEqual(t, CacheKey(a), CacheKey(c))
	assert.Contains(t, CacheKey(a), candidateKeyPrefix)
}

func seededMemory(t *testing.T) *Memory {
	t.Helper()
	store := subject.NewInMemoryStore()
	ctx := context.Background()
	for _, s := range []models.Subject{
		{Source: "OFAC", SourceRecordID: "1", SubjectType: "Individual", Name: "Ivan Petrov"},
		{Source: "UN", SourceRecordID: "2", SubjectType: "Person", Name: "Johann Schmidt", Aliases: []string{"Ivan Schmidt"}},
		{Source: "EU", SourceRecordID: "3", SubjectType: "Vessel", Name: "Ocean Star", OtherInformation: "IMO 9321483"},
		{Source: "UK", SourceRecordID: "4", SubjectType: "Individual", Name: "Ivanka Petrova", IsWhitelisted: true},
	} {
		_, _, err := store.Upsert(ctx, s)
		require.NoError(t, err)
	}
	whitelisted, err := store.FindByID(ctx, 4)
	require.NoError(t, err)
	_, err = store.SetWhitelisted(ctx, whitelisted.ID, true, "cleared")
	require.NoError(t, err)
	return NewMemory(store)
}

func names(subjects []models.Subject) []string {
	out := make([]string, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, s.Name)
	}
	return out
}

func TestMemorySearch(t *testing.T) {
	idx := seededMemory(t)
	ctx := context.Background()

	t.Run("prefix match over name and aliases", func(t *testing.T) {
		got, err := idx.Search(ctx, Query{Text: "ivan", Limit: 100})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Ivan Petrov", "Johann Schmidt", "Ivanka Petrova"}, names(got))
	})

	t.Run("whitelist exclusion", func(t *testing.T) {
		got, err := idx.Search(ctx, Query{Text: "ivan", Filter: Filter{ExcludeWhitelisted: true}, Limit: 100})
		require.NoError(t, err)
		assert.NotContains(t, names(got), "Ivanka Petrova")
	})

	t.Run("type and source filters", func(t *testing.T) {
		got, err := idx.Search(ctx, Query{
			Text:   "ivan",
			Filter: Filter{SubjectTypes: TypeVocabulary(models.SubjectIndividual), Sources: []string{"UN"}},
			Limit:  100,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Johann Schmidt"}, names(got))
	})

	t.Run("searches other information", func(t *testing.T) {
		got, err := idx.Search(ctx, Query{Text: "9321483", Limit: 100})
		require.NoError(t, err)
		assert.Equal(t, []string{"Ocean Star"}, names(got))
	})

	t.Run("limit caps the candidate set", func(t *testing.T) {
		got, err := idx.Search(ctx, Query{Text: "ivan", Limit: 1})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("query without terms", func(t *testing.T) {
		got, err := idx.Search(ctx, Query{Text: "!!", Limit: 100})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

type failingLister struct{}

func (failingLister) All(context.Context) ([]models.Subject, error) {
	return nil, errors.New("disk on fire")
}

func TestMemorySearchFailureIsRetrievalError(t *testing.T) {
	_, err := NewMemory(failingLister{}).Search(context.Background(), Query{Text: "x", Limit: 1})

	var re *RetrievalError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrorUnavailable, re.Category)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, ErrorUnavailable, Category(err))
}

func TestRetrievalErrorClassification(t *testing.T) {
	assert.Equal(t, ErrorTimeout, classify(context.DeadlineExceeded))
	assert.Equal(t, ErrorInternal, classify(context.Canceled))
	assert.Equal(t, ErrorUnavailable, classify(errors.New("connection refused")))

	err := NewRetrievalError(ErrorBadData, "postgres", "scan subject", errors.New("bad json"))
	assert.False(t, err.Retryable)
	assert.Equal(t, "index postgres [bad_data]: scan subject: bad json", err.Error())
	assert.Equal(t, ErrorInternal, Category(errors.New("plain")))
}

type countingRetriever struct {
	calls int
	out   []models.Subject
}

func (r *countingRetriever) Search(context.Context, Query) ([]models.Subject, error) {
	r.calls++
	return r.out, nil
}

func TestCachedFallsBackWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	inner := &countingRetriever{out: []models.Subject{{ID: 1, Name: "Ivan Petrov"}}}
	breaker := circuit.New("candidate-cache", circuit.WithFailureThreshold(2), circuit.WithProbeInterval(time.Hour))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cached := NewCached(inner, client, time.Minute, logger, WithBreaker(breaker))

	for range 3 {
		got, err := cached.Search(context.Background(), Query{Text: "ivan", Limit: 100})
		require.NoError(t, err)
		assert.Equal(t, inner.out, got)
	}
	assert.Equal(t, 3, inner.calls)
	assert.True(t, breaker.IsOpen())
}

func TestCachedInvalidateReportsRedisFailure(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cached := NewCached(&countingRetriever{}, client, time.Minute, logger)

	require.Error(t, cached.Invalidate(context.Background()))
}
