package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/PracticalMetal/major-notice/internal/model"
	"github.com/PracticalMetal/major-notice/internal/repository"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Commit(ctx context.Context, doc *model.Document) (int64, error) {
	args := m.Called(ctx, doc)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, org, id string) (*model.Document, error) {
	args := m.Called(ctx, org, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) List(ctx context.Context, org string, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	args := m.Called(ctx, org, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Document]), args.Error(1)
}

func (m *MockDocumentRepository) Count(ctx context.Context, org string) (int, error) {
	args := m.Called(ctx, org)
	return args.Int(0), args.Error(1)
}

func (m *MockDocumentRepository) CountMonth(ctx context.Context, org string, monthIndex int) (int, error) {
	args := m.Called(ctx, org, monthIndex)
	return args.Int(0), args.Error(1)
}

func (m *MockDocumentRepository) CountByStoragePath(ctx context.Context, storagePath string) (int, error) {
	args := m.Called(ctx, storagePath)
	return args.Int(0), args.Error(1)
}

func (m *MockDocumentRepository) Select(ctx context.Context, org, id string) error {
	args := m.Called(ctx, org, id)
	return args.Error(0)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, org, id string) error {
	args := m.Called(ctx, org, id)
	return args.Error(0)
}

type MockOrganizationRepository struct {
	mock.Mock
}

func (m *MockOrganizationRepository) Get(ctx context.Context, name string) (*model.Organization, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Organization), args.Error(1)
}
