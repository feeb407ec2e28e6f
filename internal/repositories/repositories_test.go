package repositories_test

import (
	"context"
	"testing"
	"time"

	"todo-api/backend/internal/database"
	"todo-api/backend/internal/models"
	"todo-api/backend/internal/repositories"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm/logger"
)

type RepositoryTestSuite struct {
	suite.Suite
	pool  *database.DatabasePool
	users repositories.UserRepository
	tasks repositories.TaskRepository
	ctx   context.Context
}

func (s *RepositoryTestSuite) SetupTest() {
	pool, err := database.NewDatabasePool(&database.PoolConfig{
		Driver:   database.DriverSQLite,
		DSN:      ":memory:",
		LogLevel: logger.Silent,
	})
	s.Require().NoError(err)
	s.Require().NoError(pool.Migrate())

	s.pool = pool
	s.users = repositories.NewUserRepository(pool.DB)
	s.tasks = repositories.NewTaskRepository(pool.DB)
	s.ctx = context.Background()
}

func (s *RepositoryTestSuite) TearDownTest() {
	s.Require().NoError(s.pool.Close())
}

func (s *RepositoryTestSuite) newTask(owner uuid.UUID, description string, createdAt time.Time) *models.Task {
	task := &models.Task{
		UserID:      owner,
		Description: description,
		Status:      models.TaskStatusPending,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	s.Require().NoError(s.tasks.Create(s.ctx, task))
	return task
}

func (s *RepositoryTestSuite) TestUserCreateAndFindByEmail() {
	user := &models.User{Name: "Ada", Email: "ada@example.com", Password: "digest"}
	s.Require().NoError(s.users.Create(s.ctx, user))
	s.NotEqual(uuid.Nil, user.ID)

	found, err := s.users.FindByEmail(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Equal(user.ID, found.ID)
	s.Equal("digest", found.Password)
}

func (s *RepositoryTestSuite) TestUserFindByEmailIsCaseSensitive() {
	s.Require().NoError(s.users.Create(s.ctx, &models.User{Name: "Ada", Email: "ada@example.com", Password: "digest"}))

	_, err := s.users.FindByEmail(s.ctx, "ADA@example.com")
	s.ErrorIs(err, repositories.ErrNotFound)
}

func (s *RepositoryTestSuite) TestUserCreateDuplicateEmail() {
	first := &models.User{Name: "Ada", Email: "ada@example.com", Password: "first"}
	s.Require().NoError(s.users.Create(s.ctx, first))

	err := s.users.Create(s.ctx, &models.User{Name: "Eve", Email: "ada@example.com", Password: "second"})
	s.ErrorIs(err, repositories.ErrDuplicate)

	found, err := s.users.FindByEmail(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Equal(first.ID, found.ID)
	s.Equal("Ada", found.Name)
	s.Equal("first", found.Password)
}

func (s *RepositoryTestSuite) TestFindByOwnerNewestFirstAndScoped() {
	owner := uuid.Must(uuid.NewV4())
	other := uuid.Must(uuid.NewV4())
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	s.newTask(owner, "oldest", base)
	s.newTask(owner, "newest", base.Add(2*time.Hour))
	s.newTask(owner, "middle", base.Add(time.Hour))
	s.newTask(other, "not mine", base.Add(3*time.Hour))

	tasks, err := s.tasks.FindByOwner(s.ctx, owner)
	s.Require().NoError(err)
	s.Require().Len(tasks, 3)
	s.Equal("newest", tasks[0].Description)
	s.Equal("middle", tasks[1].Description)
	s.Equal("oldest", tasks[2].Description)
}

func (s *RepositoryTestSuite) TestFindByOwnerEmpty() {
	tasks, err := s.tasks.FindByOwner(s.ctx, uuid.Must(uuid.NewV4()))
	s.Require().NoError(err)
	s.NotNil(tasks)
	s.Empty(tasks)
}

func (s *RepositoryTestSuite) TestUpdateByIDAndOwner() {
	owner := uuid.Must(uuid.NewV4())
	created := s.newTask(owner, "buy milk", time.Now().UTC().Add(-time.Hour))

	status := models.TaskStatusCompleted
	updated, err := s.tasks.UpdateByIDAndOwner(s.ctx, created.ID, owner, repositories.TaskPatch{Status: &status})
	s.Require().NoError(err)
	s.Equal("buy milk", updated.Description)
	s.Equal(models.TaskStatusCompleted, updated.Status)
	s.Equal(owner, updated.UserID)
	s.True(updated.UpdatedAt.After(created.UpdatedAt))
	s.WithinDuration(created.CreatedAt, updated.CreatedAt, time.Second)
}

func (s *RepositoryTestSuite) TestUpdateByIDAndOwner_WrongOwnerLeavesRecordUntouched() {
	owner := uuid.Must(uuid.NewV4())
	intruder := uuid.Must(uuid.NewV4())
	created := s.newTask(owner, "buy milk", time.Now().UTC())

	description := "hijacked"
	_, err := s.tasks.UpdateByIDAndOwner(s.ctx, created.ID, intruder, repositories.TaskPatch{Description: &description})
	s.ErrorIs(err, repositories.ErrNotFound)

	tasks, err := s.tasks.FindByOwner(s.ctx, owner)
	s.Require().NoError(err)
	s.Require().Len(tasks, 1)
	s.Equal("buy milk", tasks[0].Description)
}

func (s *RepositoryTestSuite) TestUpdateByIDAndOwner_UnknownID() {
	_, err := s.tasks.UpdateByIDAndOwner(s.ctx, uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4()), repositories.TaskPatch{})
	s.ErrorIs(err, repositories.ErrNotFound)
}

func (s *RepositoryTestSuite) TestDeleteByIDAndOwner() {
	owner := uuid.Must(uuid.NewV4())
	created := s.newTask(owner, "buy milk", time.Now().UTC())

	deleted, err := s.tasks.DeleteByIDAndOwner(s.ctx, created.ID, owner)
	s.Require().NoError(err)
	s.Equal(created.ID, deleted.ID)
	s.Equal("buy milk", deleted.Description)

	tasks, err := s.tasks.FindByOwner(s.ctx, owner)
	s.Require().NoError(err)
	s.Empty(tasks)

	_, err = s.tasks.DeleteByIDAndOwner(s.ctx, created.ID, owner)
	s.ErrorIs(err, repositories.ErrNotFound)
}

func (s *RepositoryTestSuite) TestDeleteByIDAndOwner_WrongOwner() {
	owner := uuid.Must(uuid.NewV4())
	created := s.newTask(owner, "buy milk", time.Now().UTC())

	_, err := s.tasks.DeleteByIDAndOwner(s.ctx, created.ID, uuid.Must(uuid.NewV4()))
	s.ErrorIs(err, repositories.ErrNotFound)

	tasks, err := s.tasks.FindByOwner(s.ctx, owner)
	s.Require().NoError(err)
	s.Len(tasks, 1)
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}
