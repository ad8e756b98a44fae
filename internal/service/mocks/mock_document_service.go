package mocks

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/PracticalMetal/major-notice/internal/model"
	"github.com/PracticalMetal/major-notice/internal/service"
	"github.com/PracticalMetal/major-notice/internal/storage"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) List(ctx context.Context, org string, limit, offset int) (*service.DocumentListResult, error) {
	args := m.Called(ctx, org, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, org, id string) (*model.Document, error) {
	args := m.Called(ctx, org, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Select(ctx context.Context, org, id string) error {
	args := m.Called(ctx, org, id)
	return args.Error(0)
}

func (m *MockDocumentService) Delete(ctx context.Context, org, id string) error {
	args := m.Called(ctx, org, id)
	return args.Error(0)
}

func (m *MockDocumentService) Image(ctx context.Context, org, id string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, org, id)
	if args.Get(0) == nil {
		return nil, storage.ObjectInfo{}, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockDocumentService) ImageLink(ctx context.Context, org, id string, ttl time.Duration) (*service.ImageLink, error) {
	args := m.Called(ctx, org, id, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ImageLink), args.Error(1)
}

type MockUploadService struct {
	mock.Mock
}

func (m *MockUploadService) Upload(ctx context.Context, req service.UploadRequest) (*model.Document, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Summary(ctx context.Context, org string) (*service.DashboardSummary, error) {
	args := m.Called(ctx, org)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DashboardSummary), args.Error(1)
}

func (m *MockDashboardService) Members(ctx context.Context, org string) ([]model.Member, error) {
	args := m.Called(ctx, org)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Member), args.Error(1)
}
