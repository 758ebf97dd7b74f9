// internal/service/mocks_test.go
package service

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"fintrack/internal/domain"
	"fintrack/internal/events"
	"fintrack/internal/repository"
	"fintrack/internal/util"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockDBExecutor is a mock implementation of repository.DBExecutor.
type MockDBExecutor struct {
	mock.Mock
}

func (m *MockDBExecutor) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	argsCalled := m.Called(ctx, query, args)
	return argsCalled.Get(0).(sql.Result), argsCalled.Error(1)
}

func (m *MockDBExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	m.Called(ctx, query, args)
	return &sql.Row{}
}

func (m *MockDBExecutor) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	argsCalled := m.Called(ctx, query, args)
	return nil, argsCalled.Error(1)
}

func (m *MockDBExecutor) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	argsCalled := m.Called(ctx, query, arg)
	return argsCalled.Get(0).(sql.Result), argsCalled.Error(1)
}

// MockTxController is a mock implementation of db.TxController.
// It also implements repository.DBExecutor by embedding MockDBExecutor.
type MockTxController struct {
	mock.Mock
	MockDBExecutor
}

func (m *MockTxController) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTxController) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockDBBeginner is a mock implementation of db.DBTxBeginner.
type MockDBBeginner struct {
	mock.Mock
}

func (m *MockDBBeginner) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	args := m.Called(ctx, opts)
	return &sqlx.Tx{}, args.Error(1)
}

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	args := m.Called(ctx, q, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.User, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, q repository.DBExecutor, username string) (*domain.User, error) {
	args := m.Called(ctx, q, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockUploadRepository is a mock implementation of repository.UploadRepository.
type MockUploadRepository struct {
	mock.Mock
}

func (m *MockUploadRepository) CreateUpload(ctx context.Context, q repository.DBExecutor, upload *domain.Upload) error {
	args := m.Called(ctx, q, upload)
	return args.Error(0)
}

func (m *MockUploadRepository) GetUpload(ctx context.Context, q repository.DBExecutor, id, userID int64) (*domain.Upload, error) {
	args := m.Called(ctx, q, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Upload), args.Error(1)
}

func (m *MockUploadRepository) ListUploadsByUser(ctx context.Context, q repository.DBExecutor, userID int64) ([]domain.Upload, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Upload), args.Error(1)
}

func (m *MockUploadRepository) UpdateUploadCounts(ctx context.Context, q repository.DBExecutor, id int64, accepted, rejected int) error {
	args := m.Called(ctx, q, id, accepted, rejected)
	return args.Error(0)
}

func (m *MockUploadRepository) DeleteUpload(ctx context.Context, q repository.DBExecutor, id, userID int64) error {
	args := m.Called(ctx, q, id, userID)
	return args.Error(0)
}

// MockLedgerRepository is a mock implementation of repository.LedgerRepository.
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) InsertEntries(ctx context.Context, q repository.DBExecutor, entries []domain.LedgerEntry) error {
	args := m.Called(ctx, q, entries)
	return args.Error(0)
}

func (m *MockLedgerRepository) DeleteEntriesByUpload(ctx context.Context, q repository.DBExecutor, uploadID, userID int64) (int64, error) {
	args := m.Called(ctx, q, uploadID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerRepository) CountEntriesByUser(ctx context.Context, q repository.DBExecutor, userID int64) (int64, error) {
	args := m.Called(ctx, q, userID)
	return args.Get(0).(int64), args.Error(1)
}

// StreamEntriesByUser feeds the entries given to Return through fn.
func (m *MockLedgerRepository) StreamEntriesByUser(ctx context.Context, q repository.DBExecutor, userID int64, fn func(domain.LedgerEntry) error) error {
	args := m.Called(ctx, q, userID)
	if entries, ok := args.Get(0).([]domain.LedgerEntry); ok {
		for _, e := range entries {
			if err := fn(e); err != nil {
				return err
			}
		}
	}
	return args.Error(1)
}

func (m *MockLedgerRepository) TotalsByKind(ctx context.Context, q repository.DBExecutor, userID int64) ([]repository.KindTotal, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.KindTotal), args.Error(1)
}

// MockPublisher is a mock implementation of events.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, e events.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

// memoryBlobStore is an in-memory blob.Store that records deletions.
type memoryBlobStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	deleted []string
	putErr  error
}

func newMemoryBlobStore() *memoryBlobStore {
	return &memoryBlobStore{blobs: make(map[string][]byte)}
}

func (s *memoryBlobStore) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s.putErr != nil {
		return 0, s.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = data
	return int64(len(data)), nil
}

func (s *memoryBlobStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, util.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memoryBlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *memoryBlobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}
