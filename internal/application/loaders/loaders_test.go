package loaders_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/CoderVinit/doctor-backend/internal/application/loaders"
	"github.com/CoderVinit/doctor-backend/internal/domain/entities"
	"github.com/CoderVinit/doctor-backend/internal/domain/repositories"
)

type MockDoctorRepository struct {
	mock.Mock
}

func (m *MockDoctorRepository) GetByID(ctx context.Context, id string) (*entities.Doctor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Doctor, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) ListTopRated(ctx context.Context, limit int) ([]*entities.Doctor, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*entities.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) SearchByKeywords(ctx context.Context, keywords []string, limit int) ([]*entities.Doctor, error) {
	args := m.Called(ctx, keywords, limit)
	return args.Get(0).([]*entities.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) List(ctx context.Context, filter repositories.DoctorFilter) ([]*entities.Doctor, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*entities.Doctor), args.Error(1)
}

func (m *MockDoctorRepository) Create(ctx context.Context, doctor *entities.Doctor) error {
	return m.Called(ctx, doctor).Error(0)
}

func TestDoctorLoader_BatchesAndReportsMissing(t *testing.T) {
	repo := new(MockDoctorRepository)
	repo.On("GetByIDs", mock.Anything, mock.MatchedBy(func(ids []string) bool {
		return len(ids) == 2
	})).Return([]*entities.Doctor{{ID: "d1", Name: "Dr. One"}}, nil).Once()

	l := loaders.NewLoaders(repo)
	ctx := context.Background()

	doctors, errs := l.DoctorLoader.LoadMany(ctx, []string{"d1", "d2"})()

	require.Len(t, doctors, 2)
	assert.Equal(t, "Dr. One", doctors[0].Name)
	require.Len(t, errs, 2)
	assert.NoError(t, errs[0])
	assert.Error(t, errs[1])
	repo.AssertExpectations(t)
}

func TestDoctorLoader_PropagatesRepositoryError(t *testing.T) {
	repo := new(MockDoctorRepository)
	repo.On("GetByIDs", mock.Anything, []string{"d1"}).Return(nil, errors.New("db down"))

	l := loaders.NewLoaders(repo)
	_, err := l.DoctorLoader.Load(context.Background(), "d1")()

	assert.EqualError(t, err, "db down")
}

func TestFor(t *testing.T) {
	assert.Nil(t, loaders.For(context.Background()))

	l := loaders.NewLoaders(new(MockDoctorRepository))
	ctx := loaders.WithLoaders(context.Background(), l)
	assert.Same(t, l, loaders.For(ctx))
}
