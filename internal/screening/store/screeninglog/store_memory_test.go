package screeninglog

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"watchlist/internal/screening/models"
	"watchlist/pkg/requestcontext"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	base  time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.base = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.base)

	entries := []models.LogEntry{
		{UserID: "u1", SearchString: "Ivan Petrov", ScreeningType: "individual", IsMatch: true, ScreeningDate: s.base.Add(-48 * time.Hour)},
		{UserID: "u1", SearchString: "Acme Trading", ScreeningType: "entity", IsMatch: false, ScreeningDate: s.base.Add(-24 * time.Hour)},
		{UserID: "u1", SearchString: "Ocean Star", ScreeningType: "vessel", IsMatch: true, ScreeningDate: s.base},
		{UserID: "u2", SearchString: "ivan ivanov", ScreeningType: "individual", IsMatch: false, ScreeningDate: s.base},
	}
	for _, e := range entries {
		_, err := s.store.Append(s.ctx, e)
		s.Require().NoError(err)
	}
}

func (s *InMemoryStoreSuite) TestAppendAssignsIDAndDates() {
	entry, err := s.store.Append(s.ctx, models.LogEntry{UserID: "u3", SearchString: "x", ScreeningType: "individual"})
	s.Require().NoError(err)
	s.Equal(int64(5), entry.ID)
	s.Equal(s.base, entry.ScreeningDate)
	s.Equal(s.base, entry.CreatedAt)
}

func (s *InMemoryStoreSuite) TestList() {
	s.Run("scoped to user, newest first", func() {
		page, err := s.store.List(s.ctx, models.LogFilter{UserID: "u1"})
		s.Require().NoError(err)
		s.Equal(3, page.Total)
		s.Equal(DefaultLimit, page.Limit)
		s.Equal(1, page.Offset)
		s.Require().Len(page.Items, 3)
		s.Equal("Ocean Star", page.Items[0].SearchString)
		s.Equal("Ivan Petrov", page.Items[2].SearchString)
	})

	s.Run("is_match filter", func() {
		matched := true
		page, err := s.store.List(s.ctx, models.LogFilter{UserID: "u1", IsMatch: &matched})
		s.Require().NoError(err)
		s.Equal(2, page.Total)
	})

	s.Run("case insensitive search across users", func() {
		page, err := s.store.List(s.ctx, models.LogFilter{Search: "IVAN"})
		s.Require().NoError(err)
		s.Equal(2, page.Total)
	})

	s.Run("screening type filter", func() {
		page, err := s.store.List(s.ctx, models.LogFilter{ScreeningType: "Entity"})
		s.Require().NoError(err)
		s.Require().Len(page.Items, 1)
		s.Equal("Acme Trading", page.Items[0].SearchString)
	})

	s.Run("date window is from inclusive, to exclusive", func() {
		from := s.base.Add(-24 * time.Hour)
		to := s.base
		page, err := s.store.List(s.ctx, models.LogFilter{DateFrom: &from, DateTo: &to})
		s.Require().NoError(err)
		s.Require().Len(page.Items, 1)
		s.Equal("Acme Trading", page.Items[0].SearchString)
	})

	s.Run("offset is a page number", func() {
		page, err := s.store.List(s.ctx, models.LogFilter{UserID: "u1", Limit: 2, Offset: 2})
		s.Require().NoError(err)
		s.Equal(3, page.Total)
		s.Require().Len(page.Items, 1)
		s.Equal("Ivan Petrov", page.Items[0].SearchString)
	})

	s.Run("page past the end is empty", func() {
		page, err := s.store.List(s.ctx, models.LogFilter{UserID: "u1", Limit: 2, Offset: 5})
		s.Require().NoError(err)
		s.NotNil(page.Items)
		s.Empty(page.Items)
	})

	s.Run("huge page number is empty", func() {
		page, err := s.store.List(s.ctx, models.LogFilter{UserID: "u1", Limit: 500, Offset: math.MaxInt})
		s.Require().NoError(err)
		s.Equal(3, page.Total)
		s.NotNil(page.Items)
		s.Empty(page.Items)
	})
}

func TestNormalize(t *testing.T) {
	f := Normalize(models.LogFilter{Limit: 10_000, Offset: -3, ScreeningType: " Vessel ", Search: "  ivan "})
	assert.Equal(t, MaxLimit, f.Limit)
	assert.Equal(t, 1, f.Offset)
	assert.Equal(t, "vessel", f.ScreeningType)
	assert.Equal(t, "ivan", f.Search)

	for _, limit := range []int{1, 15, MaxLimit} {
		f = Normalize(models.LogFilter{Limit: limit, Offset: math.MaxInt})
		assert.GreaterOrEqual(t, skip(f), 0)
		assert.LessOrEqual(t, skip(f), math.MaxInt32)
	}
}

func TestWhereClause(t *testing.T) {
	t.Run("no filters", func(t *testing.T) {
		where, args := whereClause(models.LogFilter{})
		assert.Empty(t, where)
		assert.Empty(t, args)
	})

	t.Run("placeholders are numbered in order", func(t *testing.T) {
		matched := false
		from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		where, args := whereClause(models.LogFilter{UserID: "u1", IsMatch: &matched, Search: "50%_off", DateFrom: &from})

		assert.Equal(t, " WHERE user_id = $1 AND is_match = $2 AND search_string ILIKE $3 AND screening_date >= $4", where)
		require.Len(t, args, 4)
		assert.Equal(t, `%50\%\_off%`, args[2])
	})
}
