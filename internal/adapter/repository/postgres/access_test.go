package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/R4255/URLShortener/internal/entity"
	"github.com/stretchr/testify/suite"
)

type AccessRepositoryTestSuite struct {
	suite.Suite
	errUnknown error
	now        time.Time
	event      *entity.AccessEvent
	mock       sqlmock.Sqlmock
	repo       *AccessRepository
}

func (suite *AccessRepositoryTestSuite) SetupSuite() {
	suite.errUnknown = errors.New("unknown error")
	suite.now = time.Date(2024, 5, 31, 10, 0, 0, 0, time.UTC)
	suite.event = &entity.AccessEvent{
		ID:         "access-1",
		URLID:      "url-1",
		AccessedAt: suite.now,
		IPAddress:  "203.0.113.7",
		UserAgent:  "curl/8.0",
	}
}

func (suite *AccessRepositoryTestSuite) SetupSubTest() {
	db, mock := newMockDB(suite.T())

	suite.mock = mock
	suite.repo = NewAccessRepository(db)
}

func (suite *AccessRepositoryTestSuite) TearDownSubTest() {
	suite.NoError(suite.mock.ExpectationsWereMet())
}

func (suite *AccessRepositoryTestSuite) TestRecord() {
	ctx := context.Background()
	e := suite.event

	suite.Run("url not found", func() {
		suite.mock.ExpectBegin()
		suite.mock.ExpectExec(`UPDATE urls SET clicks = clicks \+ 1`).
			WithArgs("url-1").
			WillReturnResult(sqlmock.NewResult(0, 0))
		suite.mock.ExpectRollback()

		err := suite.repo.Record(ctx, e)

		suite.ErrorIs(err, entity.ErrURLNotFound)
	})

	suite.Run("update error", func() {
		suite.mock.ExpectBegin()
		suite.mock.ExpectExec(`UPDATE urls SET clicks = clicks \+ 1`).
			WithArgs("url-1").
			WillReturnError(suite.errUnknown)
		suite.mock.ExpectRollback()

		err := suite.repo.Record(ctx, e)

		suite.ErrorIs(err, suite.errUnknown)
	})

	suite.Run("insert error rolls back", func() {
		suite.mock.ExpectBegin()
		suite.mock.ExpectExec(`UPDATE urls SET clicks = clicks \+ 1`).
			WithArgs("url-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		suite.mock.ExpectExec(`INSERT INTO url_accesses`).
			WithArgs(e.ID, e.URLID, e.AccessedAt, e.IPAddress, e.UserAgent, nil).
			WillReturnError(suite.errUnknown)
		suite.mock.ExpectRollback()

		err := suite.repo.Record(ctx, e)

		suite.ErrorIs(err, suite.errUnknown)
	})

	suite.Run("commit error", func() {
		suite.mock.ExpectBegin()
		suite.mock.ExpectExec(`UPDATE urls SET clicks = clicks \+ 1`).
			WithArgs("url-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		suite.mock.ExpectExec(`INSERT INTO url_accesses`).
			WithArgs(e.ID, e.URLID, e.AccessedAt, e.IPAddress, e.UserAgent, nil).
			WillReturnResult(sqlmock.NewResult(0, 1))
		suite.mock.ExpectCommit().WillReturnError(suite.errUnknown)

		err := suite.repo.Record(ctx, e)

		suite.ErrorIs(err, suite.errUnknown)
	})

	suite.Run("success", func() {
		suite.mock.ExpectBegin()
		suite.mock.ExpectExec(`UPDATE urls SET clicks = clicks \+ 1`).
			WithArgs("url-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		suite.mock.ExpectExec(`INSERT INTO url_accesses`).
			WithArgs(e.ID, e.URLID, e.AccessedAt, e.IPAddress, e.UserAgent, nil).
			WillReturnResult(sqlmock.NewResult(0, 1))
		suite.mock.ExpectCommit()

		err := suite.repo.Record(ctx, e)

		suite.NoError(err)
	})
}

func (suite *AccessRepositoryTestSuite) TestRetrieveDailyStats() {
	ctx := context.Background()
	since := suite.now.Add(-30 * 24 * time.Hour)

	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`SELECT DATE\(accessed_at AT TIME ZONE 'UTC'\) AS date`).
			WithArgs("url-1", since).
			WillReturnError(suite.errUnknown)

		stats, err := suite.repo.RetrieveDailyStats(ctx, "url-1", since)

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(stats)
	})

	suite.Run("no events", func() {
		suite.mock.ExpectQuery(`SELECT DATE\(accessed_at AT TIME ZONE 'UTC'\) AS date`).
			WithArgs("url-1", since).
			WillReturnRows(sqlmock.NewRows([]string{"date", "clicks"}))

		stats, err := suite.repo.RetrieveDailyStats(ctx, "url-1", since)

		suite.NoError(err)
		suite.NotNil(stats)
		suite.Empty(stats)
	})

	suite.Run("success", func() {
		day1 := time.Date(2024, 5, 29, 0, 0, 0, 0, time.UTC)
		day2 := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows([]string{"date", "clicks"}).
			AddRow(day1, int64(4)).
			AddRow(day2, int64(1))

		suite.mock.ExpectQuery(`SELECT DATE\(accessed_at AT TIME ZONE 'UTC'\) AS date`).
			WithArgs("url-1", since).
			WillReturnRows(rows)

		stats, err := suite.repo.RetrieveDailyStats(ctx, "url-1", since)

		suite.NoError(err)
		suite.Equal([]entity.DailyStat{
			{Date: day1, Clicks: 4},
			{Date: day2, Clicks: 1},
		}, stats)
	})
}

func (suite *AccessRepositoryTestSuite) TestRetrieveRecent() {
	ctx := context.Background()
	columns := []string{"id", "url_id", "accessed_at", "ip_address", "user_agent", "referrer"}

	suite.Run("unknown error", func() {
		suite.mock.ExpectQuery(`SELECT (.+) FROM url_accesses`).
			WithArgs("url-1", 100).
			WillReturnError(suite.errUnknown)

		events, err := suite.repo.RetrieveRecent(ctx, "url-1", 100)

		suite.ErrorIs(err, suite.errUnknown)
		suite.Nil(events)
	})

	suite.Run("success", func() {
		rows := sqlmock.NewRows(columns).
			AddRow("access-2", "url-1", suite.now, "203.0.113.7", "curl/8.0", "https://ref.example.com").
			AddRow("access-1", "url-1", suite.now.Add(-time.Minute), nil, nil, nil)

		suite.mock.ExpectQuery(`SELECT (.+) FROM url_accesses (.+) ORDER BY accessed_at DESC`).
			WithArgs("url-1", 100).
			WillReturnRows(rows)

		events, err := suite.repo.RetrieveRecent(ctx, "url-1", 100)

		suite.NoError(err)
		suite.Len(events, 2)
		suite.Equal("access-2", events[0].ID)
		suite.Equal("https://ref.example.com", events[0].Referrer)
		suite.Empty(events[1].IPAddress)
		suite.Empty(events[1].UserAgent)
	})
}

func TestAccessRepository(t *testing.T) {
	suite.Run(t, new(AccessRepositoryTestSuite))
}
