//go:build integration

package index_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"watchlist/internal/screening/index"
	"watchlist/internal/screening/models"
	"watchlist/internal/screening/store/subject"
	"watchlist/pkg/testutil/containers"
)

func seedSubjects() []models.Subject {
	return []models.Subject{
		{Source: models.SourceOFAC, SourceRecordID: "O-1", SubjectType: "Individual", Name: "Ivan Petrov", Aliases: []string{"Vanya"}},
		{Source: models.SourceEU, SourceRecordID: "E-1", SubjectType: "Person", Name: "Ivanna Kowalska"},
		{Source: models.SourceUK, SourceRecordID: "K-1", SubjectType: "Ship", Name: "Ivan Star", OtherInformation: "IMO 9123456"},
		{Source: models.SourceUN, SourceRecordID: "U-1", SubjectType: "Entity", Name: "Petrov Trading LLC", Address: "Dubai"},
		{Source: models.SourceCanada, SourceRecordID: "C-1", SubjectType: "Individual", Name: "Ivan Petrov"},
	}
}

type PostgresIndexSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	subjects *subject.PostgresStore
	index    *index.Postgres
}

func TestPostgresIndexSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresIndexSuite))
}

func (s *PostgresIndexSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.subjects = subject.NewPostgres(s.postgres.DB)
	s.index = index.NewPostgres(s.postgres.DB)
}

func (s *PostgresIndexSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "screening_subjects"))
	for _, subj := range seedSubjects() {
		_, _, err := s.subjects.Upsert(ctx, subj)
		s.Require().NoError(err)
	}
	all, err := s.subjects.All(ctx)
	s.Require().NoError(err)
	_, err = s.subjects.SetWhitelisted(ctx, all[4].ID, true, "cleared")
	s.Require().NoError(err)
}

func names(subjects []models.Subject) []string {
	out := make([]string, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, s.Source+":"+s.Name)
	}
	return out
}

func (s *PostgresIndexSuite) TestPrefixSearchAcrossFields() {
	got, err := s.index.Search(context.Background(), index.Query{Text: "ivan", Limit: 100})
	s.Require().NoError(err)
	s.ElementsMatch([]string{"OFAC:Ivan Petrov", "EU:Ivanna Kowalska", "UK:Ivan Star", "CANADA:Ivan Petrov"}, names(got))

	got, err = s.index.Search(context.Background(), index.Query{Text: "vanya", Limit: 100})
	s.Require().NoError(err)
	s.Equal([]string{"OFAC:Ivan Petrov"}, names(got))

	got, err = s.index.Search(context.Background(), index.Query{Text: "9123456", Limit: 100})
	s.Require().NoError(err)
	s.Equal([]string{"UK:Ivan Star"}, names(got))
}

func (s *PostgresIndexSuite) TestFilters() {
	ctx := context.Background()

	got, err := s.index.Search(ctx, index.Query{
		Text: "Ivan Petrov",
		Filter: index.Filter{
			SubjectTypes:       index.TypeVocabulary(models.SubjectIndividual),
			ExcludeWhitelisted: true,
		},
		Limit: 100,
	})
	s.Require().NoError(err)
	s.ElementsMatch([]string{"OFAC:Ivan Petrov", "EU:Ivanna Kowalska"}, names(got))

	got, err = s.index.Search(ctx, index.Query{
		Text:   "petrov",
		Filter: index.Filter{Sources: []string{models.SourceUN}},
		Limit:  100,
	})
	s.Require().NoError(err)
	s.Equal([]string{"UN:Petrov Trading LLC"}, names(got))
}

func (s *PostgresIndexSuite) TestLimitAndEmptyQuery() {
	ctx := context.Background()

	got, err := s.index.Search(ctx, index.Query{Text: "ivan", Limit: 2})
	s.Require().NoError(err)
	s.Len(got, 2)

	got, err = s.index.Search(ctx, index.Query{Text: "  --  ", Limit: 10})
	s.Require().NoError(err)
	s.Empty(got)
}

type CachedIndexSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	redis    *containers.RedisContainer
	subjects *subject.PostgresStore
	cached   *index.Cached
}

func TestCachedIndexSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedIndexSuite))
}

func (s *CachedIndexSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.redis = mgr.GetRedis(s.T())
	s.subjects = subject.NewPostgres(s.postgres.DB)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.cached = index.NewCached(index.NewPostgres(s.postgres.DB), s.redis.Client, time.Minute, logger)
}

func (s *CachedIndexSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "screening_subjects"))
	s.Require().NoError(s.redis.FlushAll(ctx))
	for _, subj := range seedSubjects() {
		_, _, err := s.subjects.Upsert(ctx, subj)
		s.Require().NoError(err)
	}
}

func (s *CachedIndexSuite) TestServesRepeatQueriesFromRedis() {
	ctx := context.Background()
	q := index.Query{Text: "petrov", Limit: 100}

	first, err := s.cached.Search(ctx, q)
	s.Require().NoError(err)
	s.Len(first, 3)

	keys, err := s.redis.Keys(ctx, "screening:candidates:*")
	s.Require().NoError(err)
	s.Len(keys, 1)
	s.Equal(index.CacheKey(q), keys[0])

	// Rows removed from Postgres stay visible until the entry expires.
	s.Require().NoError(s.postgres.TruncateTables(ctx, "screening_subjects"))
	second, err := s.cached.Search(ctx, q)
	s.Require().NoError(err)
	s.Equal(names(first), names(second))

	ttl, err := s.redis.Client.TTL(ctx, keys[0]).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, time.Minute)
}

func (s *CachedIndexSuite) TestInvalidateDropsStaleWhitelistState() {
	ctx := context.Background()
	q := index.Query{Text: "petrov", Filter: index.Filter{ExcludeWhitelisted: true}, Limit: 100}

	first, err := s.cached.Search(ctx, q)
	s.Require().NoError(err)
	s.Require().Len(first, 3)
	s.Require().NoError(s.redis.Client.Set(ctx, "unrelated", "keep", time.Minute).Err())

	all, err := s.subjects.All(ctx)
	s.Require().NoError(err)
	var canada int64
	for _, subj := range all {
		if subj.SourceRecordID == "C-1" {
			canada = subj.ID
		}
	}
	_, err = s.subjects.SetWhitelisted(ctx, canada, true, "cleared")
	s.Require().NoError(err)

	stale, err := s.cached.Search(ctx, q)
	s.Require().NoError(err)
	s.Len(stale, 3)

	s.Require().NoError(s.cached.Invalidate(ctx))
	keys, err := s.redis.Keys(ctx, "screening:candidates:*")
	s.Require().NoError(err)
	s.Empty(keys)
	s.Equal("keep", s.redis.Client.Get(ctx, "unrelated").Val())

	fresh, err := s.cached.Search(ctx, q)
	s.Require().NoError(err)
	s.ElementsMatch([]string{"OFAC:Ivan Petrov", "UN:Petrov Trading LLC"}, names(fresh))
}
