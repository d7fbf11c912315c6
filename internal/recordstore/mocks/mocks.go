package mocks

import (
	"context"

	"github.com/rpggio/focusboard/internal/recordstore"
	"github.com/stretchr/testify/mock"
)

// Client is a mock for recordstore.Client.
type Client struct {
	mock.Mock
}

func (m *Client) FetchAll(ctx context.Context, kind recordstore.Kind) ([]recordstore.Record, error) {
	args := m.Called(ctx, kind)
	if records, ok := args.Get(0).([]recordstore.Record); ok {
		return records, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) FetchByIDs(ctx context.Context, kind recordstore.Kind, ids []string) ([]recordstore.Record, error) {
	args := m.Called(ctx, kind, ids)
	if records, ok := args.Get(0).([]recordstore.Record); ok {
		return records, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Client) Save(ctx context.Context, records []recordstore.Record) (recordstore.BatchResult, error) {
	args := m.Called(ctx, records)
	return args.Get(0).(recordstore.BatchResult), args.Error(1)
}

func (m *Client) Delete(ctx context.Context, kind recordstore.Kind, ids []string) (recordstore.BatchResult, error) {
	args := m.Called(ctx, kind, ids)
	return args.Get(0).(recordstore.BatchResult), args.Error(1)
}

func (m *Client) Query(ctx context.Context, kind recordstore.Kind, field string, values []string) ([]recordstore.Record, error) {
	args := m.Called(ctx, kind, field, values)
	if records, ok := args.Get(0).([]recordstore.Record); ok {
		return records, args.Error(1)
	}
	return nil, args.Error(1)
}
