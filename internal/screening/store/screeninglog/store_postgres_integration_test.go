//go:build integration

package screeninglog_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"watchlist/internal/screening/models"
	"watchlist/internal/screening/store/screeninglog"
	"watchlist/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *screeninglog.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = screeninglog.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "screening_logs"))

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	entries := []models.LogEntry{
		{UserID: "u1", SearchString: "Ivan Petrov", ScreeningType: "individual", IsMatch: true, ScreeningDate: base},
		{UserID: "u1", SearchString: "Acme 50%_off Ltd", ScreeningType: "entity", IsMatch: false, ScreeningDate: base.Add(24 * time.Hour)},
		{UserID: "u1", SearchString: "Ivan Star", ScreeningType: "vessel", IsMatch: true, ScreeningDate: base.Add(48 * time.Hour)},
		{UserID: "u2", SearchString: "Ivan Petrov", ScreeningType: "individual", IsMatch: true, ScreeningDate: base},
	}
	for _, e := range entries {
		_, err := s.store.Append(ctx, e)
		s.Require().NoError(err)
	}
}

func (s *PostgresStoreSuite) TestListScopesToUserNewestFirst() {
	page, err := s.store.List(context.Background(), models.LogFilter{UserID: "u1"})
	s.Require().NoError(err)
	s.Equal(3, page.Total)
	s.Equal(screeninglog.DefaultLimit, page.Limit)
	s.Require().Len(page.Items, 3)
	s.Equal("Ivan Star", page.Items[0].SearchString)
	s.Equal("Ivan Petrov", page.Items[2].SearchString)
}

func (s *PostgresStoreSuite) TestListFilters() {
	ctx := context.Background()
	matched := true

	page, err := s.store.List(ctx, models.LogFilter{UserID: "u1", IsMatch: &matched})
	s.Require().NoError(err)
	s.Equal(2, page.Total)

	page, err = s.store.List(ctx, models.LogFilter{UserID: "u1", Search: "50%_OFF"})
	s.Require().NoError(err)
	s.Require().Len(page.Items, 1)
	s.Equal("entity", page.Items[0].ScreeningType)

	page, err = s.store.List(ctx, models.LogFilter{UserID: "u1", ScreeningType: "Vessel"})
	s.Require().NoError(err)
	s.Equal(1, page.Total)

	from := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)
	page, err = s.store.List(ctx, models.LogFilter{UserID: "u1", DateFrom: &from, DateTo: &to})
	s.Require().NoError(err)
	s.Require().Len(page.Items, 1)
	s.Equal("Acme 50%_off Ltd", page.Items[0].SearchString)
}

func (s *PostgresStoreSuite) TestListPaginates() {
	ctx := context.Background()

	page, err := s.store.List(ctx, models.LogFilter{UserID: "u1", Limit: 2, Offset: 2})
	s.Require().NoError(err)
	s.Equal(3, page.Total)
	s.Require().Len(page.Items, 1)
	s.Equal("Ivan Petrov", page.Items[0].SearchString)

	page, err = s.store.List(ctx, models.LogFilter{UserID: "u1", Limit: 2, Offset: 5})
	s.Require().NoError(err)
	s.Equal(3, page.Total)
	s.Empty(page.Items)
	s.NotNil(page.Items)

	page, err = s.store.List(ctx, models.LogFilter{UserID: "u1", Limit: 2, Offset: math.MaxInt})
	s.Require().NoError(err)
	s.Equal(3, page.Total)
	s.Empty(page.Items)
}
