package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type TagRepoTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	repo     *Repository
	tenantID uuid.UUID
	tagID    uuid.UUID
	context  context.Context
}

func (suite *TagRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = New(mock)
	suite.tenantID = uuid.New()
	suite.tagID = uuid.New()
	suite.context = context.Background()
}

func (suite *TagRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestTagRepoTestSuite(t *testing.T) {
	suite.Run(t, new(TagRepoTestSuite))
}

func (suite *TagRepoTestSuite) TestCreate_Success() {
	tag := &Tag{
		ID:       suite.tagID,
		TenantID: suite.tenantID,
		Name:     "hot-lead",
		Color:    "#ff0000",
		Category: "priority",
	}

	now := time.Now().UTC()
	suite.mock.ExpectQuery(`INSERT INTO tags`).
		WithArgs(tag.ID, tag.TenantID, tag.Name, tag.Color, tag.Category).
		WillReturnRows(pgxmock.NewRows([]string{"usage_count", "created_at", "updated_at"}).
			AddRow(0, now, now))

	err := suite.repo.Create(suite.context, tag)
	assert.NoError(suite.T(), err)
	assert.Zero(suite.T(), tag.UsageCount)
}

func (suite *TagRepoTestSuite) TestCreate_DuplicateName() {
	tag := &Tag{
		ID:       suite.tagID,
		TenantID: suite.tenantID,
		Name:     "hot-lead",
	}

	suite.mock.ExpectQuery(`INSERT INTO tags`).
		WithArgs(tag.ID, tag.TenantID, tag.Name, tag.Color, tag.Category).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := suite.repo.Create(suite.context, tag)
	assert.ErrorIs(suite.T(), err, ErrDuplicateName)
}

func (suite *TagRepoTestSuite) TestList_OrderedByName() {
	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "tenant_id", "name", "color", "category", "usage_count", "created_at", "updated_at"}).
		AddRow(uuid.New(), suite.tenantID, "cold", "", "", 3, now, now).
		AddRow(uuid.New(), suite.tenantID, "warm", "", "", 7, now, now)

	suite.mock.ExpectQuery(`FROM tags WHERE tenant_id = \$1 ORDER BY name ASC, id ASC`).
		WithArgs(suite.tenantID).
		WillReturnRows(rows)

	tags, err := suite.repo.List(suite.context, suite.tenantID)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), tags, 2)
	assert.Equal(suite.T(), "cold", tags[0].Name)
	assert.Equal(suite.T(), 7, tags[1].UsageCount)
}

func (suite *TagRepoTestSuite) TestGetByID_NotFound() {
	suite.mock.ExpectQuery(`FROM tags WHERE id = \$1 AND tenant_id = \$2`).
		WithArgs(suite.tagID, suite.tenantID).
		WillReturnError(pgx.ErrNoRows)

	_, err := suite.repo.GetByID(suite.context, suite.tenantID, suite.tagID)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *TagRepoTestSuite) TestUpdate_PartialFields() {
	name := "renamed"

	suite.mock.ExpectExec(`UPDATE tags SET name = \$1, updated_at = \$2 WHERE id = \$3 AND tenant_id = \$4`).
		WithArgs(name, pgxmock.AnyArg(), suite.tagID, suite.tenantID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := suite.repo.Update(suite.context, suite.tenantID, suite.tagID, UpdateTagParams{Name: &name})
	assert.NoError(suite.T(), err)
}

func (suite *TagRepoTestSuite) TestUpdate_NoFieldsIsNoOp() {
	err := suite.repo.Update(suite.context, suite.tenantID, suite.tagID, UpdateTagParams{})
	assert.NoError(suite.T(), err)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *TagRepoTestSuite) TestDelete_Success() {
	suite.mock.ExpectExec(`DELETE FROM tags WHERE id = \$1 AND tenant_id = \$2`).
		WithArgs(suite.tagID, suite.tenantID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := suite.repo.Delete(suite.context, suite.tenantID, suite.tagID)
	assert.NoError(suite.T(), err)
}

func (suite *TagRepoTestSuite) TestDelete_WrongTenant() {
	otherTenant := uuid.New()

	suite.mock.ExpectExec(`DELETE FROM tags WHERE id = \$1 AND tenant_id = \$2`).
		WithArgs(suite.tagID, otherTenant).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := suite.repo.Delete(suite.context, otherTenant, suite.tagID)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}
