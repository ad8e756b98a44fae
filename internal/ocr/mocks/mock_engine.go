package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Recognize(ctx context.Context, img []byte, lang string) (string, error) {
	args := m.Called(ctx, img, lang)
	return args.String(0), args.Error(1)
}
