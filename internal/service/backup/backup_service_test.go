package backup

import (
	"context"
	"testing"
	"time"

	"github.com/avoronova/flatbook/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockApartmentRepository struct {
	mock.Mock
}

func (m *MockApartmentRepository) Create(ctx context.Context, apartment *domain.Apartment) error {
	args := m.Called(ctx, apartment)
	return args.Error(0)
}

func (m *MockApartmentRepository) GetByID(ctx context.Context, id string) (*domain.Apartment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Apartment), args.Error(1)
}

func (m *MockApartmentRepository) List(ctx context.Context) ([]domain.Apartment, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Apartment), args.Error(1)
}

func (m *MockApartmentRepository) Update(ctx context.Context, apartment *domain.Apartment) error {
	args := m.Called(ctx, apartment)
	return args.Error(0)
}

func (m *MockApartmentRepository) SetFavorite(ctx context.Context, id string, favorite bool) (*domain.Apartment, error) {
	args := m.Called(ctx, id, favorite)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Apartment), args.Error(1)
}

func (m *MockApartmentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) List(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByApartment(ctx context.Context, apartmentID string) ([]domain.Booking, error) {
	args := m.Called(ctx, apartmentID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) SetAssignment(ctx context.Context, id string, assignment domain.Assignment) (*domain.Booking, error) {
	args := m.Called(ctx, id, assignment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBookingRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

type MockBackupRepository struct {
	mock.Mock
}

func (m *MockBackupRepository) RestoreAll(ctx context.Context, apartments []domain.Apartment, bookings []domain.Booking) error {
	args := m.Called(ctx, apartments, bookings)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) InvalidateApartments(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func mustApartment(id string) domain.Assignment {
	a, err := domain.AssignedToApartment(id)
	if err != nil {
		panic(err)
	}
	return a
}

func TestBackupService_Export(t *testing.T) {
	mockApartments := &MockApartmentRepository{}
	mockBookings := &MockBookingRepository{}
	service := &Service{apartments: mockApartments, bookings: mockBookings}

	ctx := context.Background()
	tmp, _ := domain.AssignedTemporary("hotel")
	apartments := []domain.Apartment{
		{ID: "A1", Name: "Loft", Properties: []string{"balcony"}, IsFavorite: true},
	}
	bookings := []domain.Booking{
		{ID: "B1", GuestName: "Olga", CheckIn: day(10), CheckOut: day(14), Assignment: mustApartment("A1")},
		{ID: "B2", GuestName: "Ivan", CheckIn: day(15), CheckOut: day(17), Assignment: tmp},
		{ID: "B3", GuestName: "Maria", CheckIn: day(20), CheckOut: day(22), Assignment: domain.Unassigned()},
	}

	mockApartments.On("List", ctx).Return(apartments, nil).Once()
	mockBookings.On("List", ctx).Return(bookings, nil).Once()

	archive, err := service.Export(ctx)

	assert.NoError(t, err)
	assert.Len(t, archive.Apartments, 1)
	assert.Len(t, archive.Bookings, 3)
	assert.Equal(t, "A1", archive.Bookings[0].ApartmentID)
	assert.Empty(t, archive.Bookings[0].TemporaryApartment)
	assert.Equal(t, "hotel", archive.Bookings[1].TemporaryApartment)
	assert.Empty(t, archive.Bookings[2].ApartmentID)
	assert.Empty(t, archive.Bookings[2].TemporaryApartment)
}

func TestBackupService_Import_Success(t *testing.T) {
	mockBackups := &MockBackupRepository{}
	mockCache := &MockCache{}
	mockProducer := &MockProducer{}
	service := &Service{
		backups:    mockBackups,
		cache:      mockCache,
		producer:   mockProducer,
		auditTopic: "audit_topic",
	}

	ctx := context.Background()
	archive := &Archive{
		Apartments: []ApartmentRecord{
			{ID: "A1", Name: "Loft", IsFavorite: true},
		},
		Bookings: []BookingRecord{
			{ID: "B1", GuestName: "Olga", CheckIn: day(10), CheckOut: day(14), ApartmentID: "A1"},
			{ID: "B2", GuestName: "Ivan", CheckIn: day(14), CheckOut: day(18), ApartmentID: "A1"},
		},
	}

	mockBackups.On("RestoreAll", ctx, mock.Anything, mock.Anything).Return(nil).Once()
	mockCache.On("InvalidateApartments", ctx).Return(nil).Once()
	mockProducer.On("Publish", ctx, "audit_topic", "backup", mock.Anything).Return(nil).Once()

	summary, err := service.Import(ctx, archive)

	assert.NoError(t, err)
	assert.Equal(t, 1, summary.Apartments)
	assert.Equal(t, 2, summary.Bookings)

	mockBackups.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestBackupService_Import_RejectsInvalidArchives(t *testing.T) {
	testCases := []struct {
		name    string
		archive *Archive
	}{
		{
			name:    "nil payload",
			archive: nil,
		},
		{
			name: "apartment without name",
			archive: &Archive{
				Apartments: []ApartmentRecord{{ID: "A1"}},
			},
		},
		{
			name: "duplicate apartment id",
			archive: &Archive{
				Apartments: []ApartmentRecord{
					{ID: "A1", Name: "Loft"},
					{ID: "A1", Name: "Studio"},
				},
			},
		},
		{
			name: "booking referencing unknown apartment",
			archive: &Archive{
				Bookings: []BookingRecord{
					{ID: "B1", GuestName: "Olga", CheckIn: day(10), CheckOut: day(14), ApartmentID: "A9"},
				},
			},
		},
		{
			name: "booking with both assignment targets",
			archive: &Archive{
				Apartments: []ApartmentRecord{{ID: "A1", Name: "Loft"}},
				Bookings: []BookingRecord{
					{ID: "B1", GuestName: "Olga", CheckIn: day(10), CheckOut: day(14), ApartmentID: "A1", TemporaryApartment: "hotel"},
				},
			},
		},
		{
			name: "booking with inverted dates",
			archive: &Archive{
				Bookings: []BookingRecord{
					{ID: "B1", GuestName: "Olga", CheckIn: day(14), CheckOut: day(10)},
				},
			},
		},
		{
			name: "overlapping bookings on one apartment",
			archive: &Archive{
				Apartments: []ApartmentRecord{{ID: "A1", Name: "Loft"}},
				Bookings: []BookingRecord{
					{ID: "B1", GuestName: "Olga", CheckIn: day(10), CheckOut: day(14), ApartmentID: "A1"},
					{ID: "B2", GuestName: "Ivan", CheckIn: day(12), CheckOut: day(16), ApartmentID: "A1"},
				},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockBackups := &MockBackupRepository{}
			service := &Service{backups: mockBackups}

			summary, err := service.Import(context.Background(), tc.archive)

			assert.Nil(t, summary)
			assert.ErrorIs(t, err, ErrInvalidArchive)
			mockBackups.AssertNotCalled(t, "RestoreAll")
		})
	}
}

// Importing its own export round-trips cleanly.
func TestBackupService_ExportThenImport(t *testing.T) {
	mockApartments := &MockApartmentRepository{}
	mockBookings := &MockBookingRepository{}
	mockBackups := &MockBackupRepository{}
	service := &Service{
		apartments: mockApartments,
		bookings:   mockBookings,
		backups:    mockBackups,
	}

	ctx := context.Background()
	apartments := []domain.Apartment{{ID: "A1", Name: "Loft"}}
	bookings := []domain.Booking{
		{ID: "B1", GuestName: "Olga", CheckIn: day(10), CheckOut: day(14), Assignment: mustApartment("A1")},
	}

	mockApartments.On("List", ctx).Return(apartments, nil).Once()
	mockBookings.On("List", ctx).Return(bookings, nil).Once()
	mockBackups.On("RestoreAll", ctx, mock.Anything, mock.Anything).Return(nil).Once()

	archive, err := service.Export(ctx)
	assert.NoError(t, err)

	summary, err := service.Import(ctx, archive)
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.Apartments)
	assert.Equal(t, 1, summary.Bookings)

	mockBackups.AssertExpectations(t)
}
