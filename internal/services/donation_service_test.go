package services_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"sharebite/internal/models"
	"sharebite/internal/repositories"
	"sharebite/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDonationRepository is a mock implementation of repositories.DonationRepository
type MockDonationRepository struct {
	mock.Mock
}

func (m *MockDonationRepository) Create(ctx context.Context, donation *models.Donation) error {
	args := m.Called(ctx, donation)
	return args.Error(0)
}

func (m *MockDonationRepository) GetByID(ctx context.Context, id uint) (*models.Donation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Donation), args.Error(1)
}

func (m *MockDonationRepository) ListAvailable(ctx context.Context) ([]models.DonationListing, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.DonationListing), args.Error(1)
}

func (m *MockDonationRepository) SearchAvailable(ctx context.Context, term string) ([]models.DonationListing, error) {
	args := m.Called(ctx, term)
	return args.Get(0).([]models.DonationListing), args.Error(1)
}

func (m *MockDonationRepository) Claim(ctx context.Context, id, userID uint) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of services.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishDonationEvent(event models.DonationEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

func TestDonationService_CreateDonation(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockDonationRepository)
	publisher := new(MockEventPublisher)
	service := services.NewDonationService(mockRepo, publisher)

	input := services.DonationInput{FoodName: "Bread", Quantity: "2 loaves", Location: "Main St", ContactInfo: "555-1234"}

	mockRepo.On("Create", ctx, mock.MatchedBy(func(d *models.Donation) bool {
		return d.DonorID == 3 && d.FoodName == "Bread" && !d.IsClaimed && d.ClaimedBy == nil
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Donation).ID = 11
	}).Return(nil).Once()
	publisher.On("PublishDonationEvent", mock.MatchedBy(func(e models.DonationEvent) bool {
		return e.Type == models.EventDonationCreated && e.DonationID == 11 && e.UserID == 3 && e.FoodName == "Bread"
	})).Return(nil).Once()

	donation, err := service.CreateDonation(ctx, 3, input)
	require.NoError(t, err)
	assert.Equal(t, uint(11), donation.ID)
	mockRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)

	// Storage failure
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.Donation")).Return(fmt.Errorf("database error")).Once()
	_, err = service.CreateDonation(ctx, 3, input)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
	mockRepo.AssertExpectations(t)
	publisher.AssertNumberOfCalls(t, "PublishDonationEvent", 1)
}

func TestDonationService_CreateDonation_PublishFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockDonationRepository)
	publisher := new(MockEventPublisher)
	service := services.NewDonationService(mockRepo, publisher)

	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.Donation")).Return(nil).Once()
	publisher.On("PublishDonationEvent", mock.Anything).Return(fmt.Errorf("broker down")).Once()

	_, err := service.CreateDonation(ctx, 1, services.DonationInput{FoodName: "Soup", Quantity: "1 pot", Location: "Park", ContactInfo: "x"})
	assert.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestDonationService_ClaimDonation(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockDonationRepository)
	publisher := new(MockEventPublisher)
	service := services.NewDonationService(mockRepo, publisher)

	// Successful claim publishes an event
	mockRepo.On("Claim", ctx, uint(5), uint(9)).Return(nil).Once()
	mockRepo.On("GetByID", ctx, uint(5)).Return(&models.Donation{ID: 5, FoodName: "Rice"}, nil).Once()
	publisher.On("PublishDonationEvent", mock.MatchedBy(func(e models.DonationEvent) bool {
		return e.Type == models.EventDonationClaimed && e.DonationID == 5 && e.UserID == 9 && e.FoodName == "Rice"
	})).Return(nil).Once()

	assert.NoError(t, service.ClaimDonation(ctx, 5, 9))
	mockRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)

	// Already claimed or missing
	mockRepo.On("Claim", ctx, uint(5), uint(10)).
		Return(fmt.Errorf("donation with ID 5: %w", repositories.ErrDonationUnavailable)).Once()
	err := service.ClaimDonation(ctx, 5, 10)
	assert.ErrorIs(t, err, repositories.ErrDonationUnavailable)

	// Storage failure
	mockRepo.On("Claim", ctx, uint(6), uint(10)).Return(fmt.Errorf("connection reset")).Once()
	err = service.ClaimDonation(ctx, 6, 10)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, repositories.ErrDonationUnavailable)

	mockRepo.AssertExpectations(t)
	publisher.AssertNumberOfCalls(t, "PublishDonationEvent", 1)
}

func TestDonationService_Search(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockDonationRepository)
	service := services.NewDonationService(mockRepo, nil)

	expected := []models.DonationListing{{ID: 1, FoodName: "Bread", Location: "Main St", DonorName: "alice"}}
	mockRepo.On("SearchAvailable", ctx, "main").Return(expected, nil).Once()
	mockRepo.On("ListAvailable", ctx).Return(expected, nil).Once()

	listings, err := service.Search(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, expected, listings)

	listings, err = service.ListAvailable(ctx)
	require.NoError(t, err)
	assert.Equal(t, expected, listings)
	mockRepo.AssertExpectations(t)
}

func TestDonationService_ConcurrentClaimsHaveSingleWinner(t *testing.T) {
	ctx := context.Background()
	users := repositories.NewInMemoryUserRepository()
	repo := repositories.NewInMemoryDonationRepository(users)
	service := services.NewDonationService(repo, nil)

	donor := &models.User{Username: "donor", Email: "donor@example.com"}
	require.NoError(t, users.Create(ctx, donor))
	donation, err := service.CreateDonation(ctx, donor.ID, services.DonationInput{
		FoodName: "Bread", Quantity: "2 loaves", Location: "Main St", ContactInfo: "555-1234",
	})
	require.NoError(t, err)

	const claimers = 50
	var (
		wins   atomic.Int32
		winner atomic.Uint32
		wg     sync.WaitGroup
		start  = make(chan struct{})
	)
	for i := 1; i <= claimers; i++ {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			<-start
			err := service.ClaimDonation(ctx, donation.ID, userID)
			if err == nil {
				wins.Add(1)
				winner.Store(uint32(userID))
				return
			}
			assert.ErrorIs(t, err, repositories.ErrDonationUnavailable)
		}(uint(100 + i))
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	stored, err := repo.GetByID(ctx, donation.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsClaimed)
	require.NotNil(t, stored.ClaimedBy)
	assert.Equal(t, uint(winner.Load()), *stored.ClaimedBy)
}
