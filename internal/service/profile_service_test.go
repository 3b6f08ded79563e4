package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"quizhub/internal/domain"
)

func newProfileServiceForTest(
	userRepo *MockUserRepository,
	profileRepo *MockProfileRepository,
	catalogRepo *MockCatalogRepository,
	bookmarkRepo *MockBookmarkRepository,
	now time.Time,
) ProfileService {
	return NewProfileService(userRepo, profileRepo, catalogRepo, bookmarkRepo, fixedClock{now: now})
}

func TestProfileService_GetProfile_AppliesDailyGrantOnce(t *testing.T) {
	now := baseTime()
	userRepo := new(MockUserRepository)
	profileRepo := new(MockProfileRepository)

	profile := &domain.UserProfile{
		ID: "prof1", UserID: "user1",
		SubscriptionPlan:   domain.PlanBasic,
		Tokens:             30,
		LastTokenGrantDate: now.AddDate(0, 0, -1),
	}
	userRepo.On("GetUserByID", mock.Anything, "user1").
		Return(&domain.User{ID: "user1", Email: "u@example.com", Username: "u"}, nil)
	profileRepo.On("GetProfileByUserID", mock.Anything, "user1").Return(profile, nil)
	profileRepo.On("UpdateProfile", mock.Anything, profile).Return(nil).Once()

	svc := newProfileServiceForTest(userRepo, profileRepo, new(MockCatalogRepository), new(MockBookmarkRepository), now)

	first, err := svc.GetProfile(context.Background(), "user1")
	assert.NoError(t, err)
	assert.True(t, first.DailyGrantApplied)
	assert.Equal(t, 30+domain.DailyTokens, first.Tokens)

	// Same-day second view does not grant again.
	second, err := svc.GetProfile(context.Background(), "user1")
	assert.NoError(t, err)
	assert.False(t, second.DailyGrantApplied)
	assert.Equal(t, 30+domain.DailyTokens, second.Tokens)
	profileRepo.AssertExpectations(t)
}

func TestProfileService_UpgradeSubscription_CreditsBonus(t *testing.T) {
	profileRepo := new(MockProfileRepository)
	profile := &domain.UserProfile{
		ID: "prof1", UserID: "user1",
		SubscriptionPlan: domain.PlanBasic, Tokens: 5,
	}
	profileRepo.On("GetProfileByUserID", mock.Anything, "user1").Return(profile, nil)
	profileRepo.On("UpdateProfile", mock.Anything, profile).Return(nil)

	svc := newProfileServiceForTest(new(MockUserRepository), profileRepo, new(MockCatalogRepository), new(MockBookmarkRepository), baseTime())
	resp, err := svc.UpgradeSubscription(context.Background(), "user1")

	assert.NoError(t, err)
	assert.Equal(t, string(domain.PlanPremium), resp.SubscriptionPlan)
	assert.Equal(t, 5+domain.UpgradeTokens, resp.Tokens)
}

func TestProfileService_UpgradeSubscription_AlreadyPremiumRejected(t *testing.T) {
	profileRepo := new(MockProfileRepository)
	profileRepo.On("GetProfileByUserID", mock.Anything, "user1").Return(&domain.UserProfile{
		ID: "prof1", UserID: "user1", SubscriptionPlan: domain.PlanPremium, Tokens: 1100,
	}, nil)

	svc := newProfileServiceForTest(new(MockUserRepository), profileRepo, new(MockCatalogRepository), new(MockBookmarkRepository), baseTime())
	_, err := svc.UpgradeSubscription(context.Background(), "user1")

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeInvalidInput, domainErr.Code)
	profileRepo.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything)
}

func TestProfileService_DowngradeSubscription_KeepsBalance(t *testing.T) {
	profileRepo := new(MockProfileRepository)
	profile := &domain.UserProfile{
		ID: "prof1", UserID: "user1",
		SubscriptionPlan: domain.PlanPremium, Tokens: 1100,
	}
	profileRepo.On("GetProfileByUserID", mock.Anything, "user1").Return(profile, nil)
	profileRepo.On("UpdateProfile", mock.Anything, profile).Return(nil)

	svc := newProfileServiceForTest(new(MockUserRepository), profileRepo, new(MockCatalogRepository), new(MockBookmarkRepository), baseTime())
	resp, err := svc.DowngradeSubscription(context.Background(), "user1")

	assert.NoError(t, err)
	assert.Equal(t, string(domain.PlanBasic), resp.SubscriptionPlan)
	assert.Equal(t, 1100, resp.Tokens)
}

func TestProfileService_ToggleBookmark_CreatesThenRemoves(t *testing.T) {
	catalogRepo := new(MockCatalogRepository)
	bookmarkRepo := new(MockBookmarkRepository)

	catalogRepo.On("GetQuestionByID", mock.Anything, "q1").
		Return(&domain.Question{ID: "q1", ExamID: "exam1"}, nil)
	bookmarkRepo.On("GetBookmark", mock.Anything, "user1", "q1").Return(nil, nil).Once()
	bookmarkRepo.On("CreateBookmark", mock.Anything, mock.MatchedBy(func(b *domain.BookmarkedQuestion) bool {
		return b.UserID == "user1" && b.QuestionID == "q1"
	})).Return(nil).Once()

	svc := newProfileServiceForTest(new(MockUserRepository), new(MockProfileRepository), catalogRepo, bookmarkRepo, baseTime())

	created, err := svc.ToggleBookmark(context.Background(), "user1", "q1")
	assert.NoError(t, err)
	assert.True(t, created.Bookmarked)

	bookmarkRepo.On("GetBookmark", mock.Anything, "user1", "q1").
		Return(&domain.BookmarkedQuestion{ID: "bm1", UserID: "user1", QuestionID: "q1"}, nil).Once()
	bookmarkRepo.On("DeleteBookmark", mock.Anything, "bm1").Return(nil).Once()

	removed, err := svc.ToggleBookmark(context.Background(), "user1", "q1")
	assert.NoError(t, err)
	assert.False(t, removed.Bookmarked)
	bookmarkRepo.AssertExpectations(t)
}

func TestProfileService_ToggleBookmark_UnknownQuestion(t *testing.T) {
	catalogRepo := new(MockCatalogRepository)
	catalogRepo.On("GetQuestionByID", mock.Anything, "ghost").Return(nil, nil)

	svc := newProfileServiceForTest(new(MockUserRepository), new(MockProfileRepository), catalogRepo, new(MockBookmarkRepository), baseTime())
	_, err := svc.ToggleBookmark(context.Background(), "user1", "ghost")

	var domainErr *domain.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeNotFound, domainErr.Code)
}

func TestProfileService_GrantDailyTokensToAll_SkipsAlreadyGranted(t *testing.T) {
	now := baseTime()
	profileRepo := new(MockProfileRepository)

	profiles := []domain.UserProfile{
		{ID: "p1", UserID: "u1", Tokens: 10, LastTokenGrantDate: now.AddDate(0, 0, -1)},
		{ID: "p2", UserID: "u2", Tokens: 20, LastTokenGrantDate: now}, // already granted today
		{ID: "p3", UserID: "u3", Tokens: 0},                           // never granted
	}
	profileRepo.On("ListProfiles", mock.Anything).Return(profiles, nil)
	profileRepo.On("UpdateProfile", mock.Anything, mock.MatchedBy(func(p *domain.UserProfile) bool {
		return p.ID == "p1" || p.ID == "p3"
	})).Return(nil)

	svc := newProfileServiceForTest(new(MockUserRepository), profileRepo, new(MockCatalogRepository), new(MockBookmarkRepository), now)
	count, err := svc.GrantDailyTokensToAll(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 2, count)
	profileRepo.AssertNumberOfCalls(t, "UpdateProfile", 2)
}

func TestProfileService_ListBookmarks(t *testing.T) {
	bookmarkRepo := new(MockBookmarkRepository)
	bookmarkRepo.On("ListBookmarkedQuestions", mock.Anything, "user1").Return([]domain.Question{
		{ID: "q1", QuestionText: "2+2?", QuestionType: domain.QuestionTypeSingle,
			Choices: []domain.Choice{{ID: "c1", ChoiceText: "4", IsCorrect: true}}},
	}, nil)

	svc := newProfileServiceForTest(new(MockUserRepository), new(MockProfileRepository), new(MockCatalogRepository), bookmarkRepo, baseTime())
	questions, err := svc.ListBookmarks(context.Background(), "user1")

	assert.NoError(t, err)
	assert.Len(t, questions, 1)
	assert.Equal(t, "q1", questions[0].ID)
}
