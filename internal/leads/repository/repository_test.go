package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

var leadColumnNames = []string{
	"id", "tenant_id", "name", "email", "phone", "company", "position",
	"status", "source", "interests", "notes", "lgpd_consent", "created_at", "updated_at",
}

type LeadRepoTestSuite struct {
	suite.Suite
	mock     pgxmock.PgxPoolIface
	repo     *Repository
	tenantID uuid.UUID
	leadID   uuid.UUID
	context  context.Context
}

func (suite *LeadRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = New(mock)
	suite.tenantID = uuid.New()
	suite.leadID = uuid.New()
	suite.context = context.Background()
}

func (suite *LeadRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestLeadRepoTestSuite(t *testing.T) {
	suite.Run(t, new(LeadRepoTestSuite))
}

func (suite *LeadRepoTestSuite) leadRow(id uuid.UUID, status string) *pgxmock.Rows {
	now := time.Now().UTC()
	return pgxmock.NewRows(leadColumnNames).AddRow(
		id, suite.tenantID, "Maria Silva", "maria@example.com", "+5511999990000",
		"Acme", "CTO", status, "manual", []string{"crm"}, "", true, now, now,
	)
}

func (suite *LeadRepoTestSuite) expectLeadTagsLookup(ids ...uuid.UUID) {
	rows := pgxmock.NewRows([]string{"lead_id", "tag_id"})
	suite.mock.ExpectQuery(`SELECT lead_id, tag_id FROM lead_tags`).
		WithArgs(ids).
		WillReturnRows(rows)
}

func (suite *LeadRepoTestSuite) TestCreate_Success() {
	params := CreateLeadParams{
		TenantID:    suite.tenantID,
		Name:        "Maria Silva",
		Email:       "maria@example.com",
		Phone:       "+5511999990000",
		Company:     "Acme",
		Position:    "CTO",
		Source:      "manual",
		Interests:   []string{"crm"},
		Notes:       "",
		LGPDConsent: true,
	}

	suite.mock.ExpectQuery(`INSERT INTO leads`).
		WithArgs(
			params.TenantID, params.Name, params.Email, params.Phone, params.Company,
			params.Position, params.Source, params.Interests, params.Notes, params.LGPDConsent,
		).
		WillReturnRows(suite.leadRow(suite.leadID, "new"))

	lead, err := suite.repo.Create(suite.context, params)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.leadID, lead.ID)
	assert.Equal(suite.T(), "new", lead.Status)
}

func (suite *LeadRepoTestSuite) TestGetByID_Success() {
	suite.mock.ExpectQuery(`SELECT (.+) FROM leads WHERE id = \$1 AND tenant_id = \$2`).
		WithArgs(suite.leadID, suite.tenantID).
		WillReturnRows(suite.leadRow(suite.leadID, "contacted"))
	suite.expectLeadTagsLookup(suite.leadID)

	lead, err := suite.repo.GetByID(suite.context, suite.leadID, suite.tenantID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.leadID, lead.ID)
	assert.Equal(suite.T(), "contacted", lead.Status)
	assert.Empty(suite.T(), lead.Tags)
}

func (suite *LeadRepoTestSuite) TestGetByID_WrongTenant() {
	otherTenant := uuid.New()

	suite.mock.ExpectQuery(`SELECT (.+) FROM leads WHERE id = \$1 AND tenant_id = \$2`).
		WithArgs(suite.leadID, otherTenant).
		WillReturnError(pgx.ErrNoRows)

	_, err := suite.repo.GetByID(suite.context, suite.leadID, otherTenant)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *LeadRepoTestSuite) TestUpdate_StatusCompareAndSet() {
	status := "qualified"
	expected := "contacted"

	suite.mock.ExpectQuery(`UPDATE leads SET status = \$1, updated_at = now\(\)`).
		WithArgs(status, suite.leadID, suite.tenantID, expected).
		WillReturnRows(suite.leadRow(suite.leadID, status))
	suite.expectLeadTagsLookup(suite.leadID)

	lead, err := suite.repo.Update(suite.context, suite.leadID, suite.tenantID, UpdateLeadParams{
		Status:         &status,
		ExpectedStatus: &expected,
	})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), status, lead.Status)
}

func (suite *LeadRepoTestSuite) TestUpdate_StatusRaceDetected() {
	status := "qualified"
	expected := "contacted"

	suite.mock.ExpectQuery(`UPDATE leads SET status = \$1, updated_at = now\(\)`).
		WithArgs(status, suite.leadID, suite.tenantID, expected).
		WillReturnError(pgx.ErrNoRows)
	// The lead still exists with a different status, so the CAS lost a race.
	suite.mock.ExpectQuery(`SELECT (.+) FROM leads WHERE id = \$1 AND tenant_id = \$2`).
		WithArgs(suite.leadID, suite.tenantID).
		WillReturnRows(suite.leadRow(suite.leadID, "lost"))
	suite.expectLeadTagsLookup(suite.leadID)

	_, err := suite.repo.Update(suite.context, suite.leadID, suite.tenantID, UpdateLeadParams{
		Status:         &status,
		ExpectedStatus: &expected,
	})
	assert.ErrorIs(suite.T(), err, ErrStatusChanged)
}

func (suite *LeadRepoTestSuite) TestUpdate_StatusTargetVanished() {
	status := "qualified"
	expected := "contacted"

	suite.mock.ExpectQuery(`UPDATE leads SET status = \$1, updated_at = now\(\)`).
		WithArgs(status, suite.leadID, suite.tenantID, expected).
		WillReturnError(pgx.ErrNoRows)
	suite.mock.ExpectQuery(`SELECT (.+) FROM leads WHERE id = \$1 AND tenant_id = \$2`).
		WithArgs(suite.leadID, suite.tenantID).
		WillReturnError(pgx.ErrNoRows)

	_, err := suite.repo.Update(suite.context, suite.leadID, suite.tenantID, UpdateLeadParams{
		Status:         &status,
		ExpectedStatus: &expected,
	})
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *LeadRepoTestSuite) TestUpdate_NotFound() {
	name := "New Name"

	suite.mock.ExpectQuery(`UPDATE leads SET name = \$1, updated_at = now\(\)`).
		WithArgs(name, suite.leadID, suite.tenantID).
		WillReturnError(pgx.ErrNoRows)

	_, err := suite.repo.Update(suite.context, suite.leadID, suite.tenantID, UpdateLeadParams{
		Name: &name,
	})
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *LeadRepoTestSuite) TestDelete_RecountsTagUsage() {
	tagID := uuid.New()

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`SELECT tag_id FROM lead_tags WHERE lead_id = \$1`).
		WithArgs(suite.leadID).
		WillReturnRows(pgxmock.NewRows([]string{"tag_id"}).AddRow(tagID))
	suite.mock.ExpectExec(`DELETE FROM leads WHERE id = \$1 AND tenant_id = \$2`).
		WithArgs(suite.leadID, suite.tenantID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	// The cascade removed the memberships, so the counters must be recomputed
	// before the transaction commits.
	suite.mock.ExpectExec(`UPDATE tags SET usage_count`).
		WithArgs(suite.tenantID, []uuid.UUID{tagID}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectCommit()

	err := suite.repo.Delete(suite.context, suite.leadID, suite.tenantID)
	assert.NoError(suite.T(), err)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *LeadRepoTestSuite) TestDelete_NoTagsSkipsRecount() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`SELECT tag_id FROM lead_tags WHERE lead_id = \$1`).
		WithArgs(suite.leadID).
		WillReturnRows(pgxmock.NewRows([]string{"tag_id"}))
	suite.mock.ExpectExec(`DELETE FROM leads WHERE id = \$1 AND tenant_id = \$2`).
		WithArgs(suite.leadID, suite.tenantID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	suite.mock.ExpectCommit()

	err := suite.repo.Delete(suite.context, suite.leadID, suite.tenantID)
	assert.NoError(suite.T(), err)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *LeadRepoTestSuite) TestDelete_NotFound() {
	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`SELECT tag_id FROM lead_tags WHERE lead_id = \$1`).
		WithArgs(suite.leadID).
		WillReturnRows(pgxmock.NewRows([]string{"tag_id"}))
	suite.mock.ExpectExec(`DELETE FROM leads WHERE id = \$1 AND tenant_id = \$2`).
		WithArgs(suite.leadID, suite.tenantID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	suite.mock.ExpectRollback()

	err := suite.repo.Delete(suite.context, suite.leadID, suite.tenantID)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *LeadRepoTestSuite) TestList_CountsBeforePaginating() {
	status := "new"

	suite.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM leads l WHERE l\.tenant_id = \$1 AND l\.status = \$2`).
		WithArgs(suite.tenantID, status).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(42))
	suite.mock.ExpectQuery(`ORDER BY l\.created_at DESC, l\.id ASC`).
		WithArgs(suite.tenantID, status, 20, 0).
		WillReturnRows(suite.leadRow(suite.leadID, status))
	suite.expectLeadTagsLookup(suite.leadID)

	leads, total, err := suite.repo.List(suite.context, ListParams{
		TenantID: suite.tenantID,
		Status:   &status,
		Limit:    20,
		Offset:   0,
	})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 42, total)
	assert.Len(suite.T(), leads, 1)
}

func (suite *LeadRepoTestSuite) TestList_SortWhitelistFallsBackToCreatedAt() {
	suite.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM leads l WHERE l\.tenant_id = \$1`).
		WithArgs(suite.tenantID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	suite.mock.ExpectQuery(`ORDER BY l\.created_at ASC, l\.id ASC`).
		WithArgs(suite.tenantID, 10, 0).
		WillReturnRows(pgxmock.NewRows(leadColumnNames))

	leads, total, err := suite.repo.List(suite.context, ListParams{
		TenantID:  suite.tenantID,
		SortBy:    "lgpd_consent; DROP TABLE leads",
		SortOrder: "asc",
		Limit:     10,
		Offset:    0,
	})
	assert.NoError(suite.T(), err)
	assert.Zero(suite.T(), total)
	assert.Empty(suite.T(), leads)
}

func (suite *LeadRepoTestSuite) TestAddLeadTags_RecountsInsideTransaction() {
	tagID := uuid.New()
	tagIDs := []uuid.UUID{tagID}

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`SELECT id FROM leads WHERE id = \$1 AND tenant_id = \$2 FOR UPDATE`).
		WithArgs(suite.leadID, suite.tenantID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(suite.leadID))
	suite.mock.ExpectExec(`INSERT INTO lead_tags`).
		WithArgs(suite.leadID, suite.tenantID, tagIDs).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	suite.mock.ExpectExec(`UPDATE tags SET usage_count`).
		WithArgs(suite.tenantID, tagIDs).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectExec(`UPDATE leads SET updated_at = now\(\)`).
		WithArgs(suite.leadID, suite.tenantID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	suite.mock.ExpectCommit()

	err := suite.repo.AddLeadTags(suite.context, suite.leadID, suite.tenantID, tagIDs)
	assert.NoError(suite.T(), err)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *LeadRepoTestSuite) TestRemoveLeadTags_LeadMissingRollsBack() {
	tagIDs := []uuid.UUID{uuid.New()}

	suite.mock.ExpectBegin()
	suite.mock.ExpectQuery(`SELECT id FROM leads WHERE id = \$1 AND tenant_id = \$2 FOR UPDATE`).
		WithArgs(suite.leadID, suite.tenantID).
		WillReturnError(pgx.ErrNoRows)
	suite.mock.ExpectRollback()

	err := suite.repo.RemoveLeadTags(suite.context, suite.leadID, suite.tenantID, tagIDs)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *LeadRepoTestSuite) TestResolveTagIDs_FiltersUnknown() {
	known := uuid.New()
	unknown := uuid.New()

	suite.mock.ExpectQuery(`SELECT id FROM tags WHERE tenant_id = \$1 AND id = ANY\(\$2\)`).
		WithArgs(suite.tenantID, []uuid.UUID{known, unknown}).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(known))

	resolved, err := suite.repo.ResolveTagIDs(suite.context, suite.tenantID, []uuid.UUID{known, unknown})
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), resolved[known])
	assert.False(suite.T(), resolved[unknown])
}

func (suite *LeadRepoTestSuite) TestCreate_DatabaseError() {
	suite.mock.ExpectQuery(`INSERT INTO leads`).
		WillReturnError(errors.New("database connection failed"))

	_, err := suite.repo.Create(suite.context, CreateLeadParams{TenantID: suite.tenantID})
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "database connection failed")
}
