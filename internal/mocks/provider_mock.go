package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"horror-story-server/internal/provider"
)

// MockProvider is a mock type for the Provider type
type MockProvider struct {
	mock.Mock
}

// Name provides a mock function with given fields:
func (_m *MockProvider) Name() string {
	ret := _m.Called()

	var r0 string
	if rf, ok := ret.Get(0).(func() string); ok {
		r0 = rf()
	} else {
		r0 = ret.Get(0).(string)
	}
	return r0
}

// Model provides a mock function with given fields:
func (_m *MockProvider) Model() string {
	ret := _m.Called()

	var r0 string
	if rf, ok := ret.Get(0).(func() string); ok {
		r0 = rf()
	} else {
		r0 = ret.Get(0).(string)
	}
	return r0
}

// Generate provides a mock function with given fields: ctx, req
func (_m *MockProvider) Generate(ctx context.Context, req provider.Request) (*provider.Completion, error) {
	ret := _m.Called(ctx, req)

	var r0 *provider.Completion
	if rf, ok := ret.Get(0).(func(context.Context, provider.Request) *provider.Completion); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*provider.Completion)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, provider.Request) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockProvider creates a new instance of MockProvider. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockProvider {
	m := &MockProvider{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ provider.Provider = (*MockProvider)(nil)

// MockResolver is a mock type for the Resolver type
type MockResolver struct {
	mock.Mock
}

// Resolve provides a mock function with given fields: name
func (_m *MockResolver) Resolve(name string) (provider.Provider, error) {
	ret := _m.Called(name)

	var r0 provider.Provider
	if rf, ok := ret.Get(0).(func(string) provider.Provider); ok {
		r0 = rf(name)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(provider.Provider)
		}
	}

	return r0, ret.Error(1)
}

// NewMockResolver creates a new instance of MockResolver.
func NewMockResolver(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockResolver {
	m := &MockResolver{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ provider.Resolver = (*MockResolver)(nil)
