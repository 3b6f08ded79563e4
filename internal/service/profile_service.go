package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"quizhub/internal/domain"
	"quizhub/internal/dto"
	"quizhub/internal/logger"
	"quizhub/internal/util"
)

// dailyGrantWorkers bounds the parallelism of the all-users sweep.
const dailyGrantWorkers = 8

// ProfileService manages the user-facing side of an account: the token
// ledger, the subscription plan and question bookmarks.
type ProfileService interface {
	// GetProfile returns the profile and applies the daily token grant
	// as a side effect, the way the original dashboard views did.
	GetProfile(ctx context.Context, userID string) (*dto.ProfileResponse, error)

	UpgradeSubscription(ctx context.Context, userID string) (*dto.SubscriptionResponse, error)
	DowngradeSubscription(ctx context.Context, userID string) (*dto.SubscriptionResponse, error)

	// ToggleBookmark bookmarks the question, or removes the bookmark if
	// one exists. Returns the new state.
	ToggleBookmark(ctx context.Context, userID, questionID string) (*dto.BookmarkToggleResponse, error)
	ListBookmarks(ctx context.Context, userID string) ([]dto.QuestionResponse, error)

	// GrantDailyTokensToAll runs the daily grant over every profile with
	// bounded parallelism. Returns the number of profiles credited.
	GrantDailyTokensToAll(ctx context.Context) (int, error)
}

type profileServiceImpl struct {
	userRepo     domain.UserRepository
	profileRepo  domain.ProfileRepository
	catalogRepo  domain.CatalogRepository
	bookmarkRepo domain.BookmarkRepository
	clock        domain.Clock
}

// NewProfileService creates a new ProfileService.
func NewProfileService(
	userRepo domain.UserRepository,
	profileRepo domain.ProfileRepository,
	catalogRepo domain.CatalogRepository,
	bookmarkRepo domain.BookmarkRepository,
	clock domain.Clock,
) ProfileService {
	return &profileServiceImpl{
		userRepo:     userRepo,
		profileRepo:  profileRepo,
		catalogRepo:  catalogRepo,
		bookmarkRepo: bookmarkRepo,
		clock:        clock,
	}
}

func (s *profileServiceImpl) GetProfile(ctx context.Context, userID string) (*dto.ProfileResponse, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("failed to fetch user", err)
	}
	if user == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf("User not found: %s", userID))
	}

	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	granted := profile.GrantDailyTokens(s.clock.Now())
	if granted {
		profile.UpdatedAt = s.clock.Now()
		if err := s.profileRepo.UpdateProfile(ctx, profile); err != nil {
			return nil, domain.NewInternalError("failed to save daily grant", err)
		}
		logger.Get().Info("Daily tokens granted",
			zap.String("userID", userID),
			zap.Int("balance", profile.Tokens))
	}

	return &dto.ProfileResponse{
		ID:                user.ID,
		Email:             user.Email,
		Username:          user.Username,
		SubscriptionPlan:  string(profile.SubscriptionPlan),
		Tokens:            profile.Tokens,
		DailyGrantApplied: granted,
	}, nil
}

// UpgradeSubscription moves the profile to premium and credits the
// upgrade bonus. Upgrading an already-premium profile is rejected.
func (s *profileServiceImpl) UpgradeSubscription(ctx context.Context, userID string) (*dto.SubscriptionResponse, error) {
	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.IsPremium() {
		return nil, domain.NewInvalidInputError("subscription is already premium")
	}

	profile.SubscriptionPlan = domain.PlanPremium
	profile.AddTokens(domain.UpgradeTokens)
	profile.UpdatedAt = s.clock.Now()
	if err := s.profileRepo.UpdateProfile(ctx, profile); err != nil {
		return nil, domain.NewInternalError("failed to save subscription", err)
	}

	logger.Get().Info("Subscription upgraded",
		zap.String("userID", userID),
		zap.Int("balance", profile.Tokens))

	return &dto.SubscriptionResponse{
		SubscriptionPlan: string(profile.SubscriptionPlan),
		Tokens:           profile.Tokens,
	}, nil
}

// DowngradeSubscription moves the profile back to basic. The token
// balance is left untouched.
func (s *profileServiceImpl) DowngradeSubscription(ctx context.Context, userID string) (*dto.SubscriptionResponse, error) {
	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !profile.IsPremium() {
		return nil, domain.NewInvalidInputError("subscription is already basic")
	}

	profile.SubscriptionPlan = domain.PlanBasic
	profile.UpdatedAt = s.clock.Now()
	if err := s.profileRepo.UpdateProfile(ctx, profile); err != nil {
		return nil, domain.NewInternalError("failed to save subscription", err)
	}

	return &dto.SubscriptionResponse{
		SubscriptionPlan: string(profile.SubscriptionPlan),
		Tokens:           profile.Tokens,
	}, nil
}

func (s *profileServiceImpl) ToggleBookmark(ctx context.Context, userID, questionID string) (*dto.BookmarkToggleResponse, error) {
	question, err := s.catalogRepo.GetQuestionByID(ctx, questionID)
	if err != nil {
		return nil, domain.NewInternalError("failed to fetch question", err)
	}
	if question == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf("Question not found: %s", questionID))
	}

	existing, err := s.bookmarkRepo.GetBookmark(ctx, userID, questionID)
	if err != nil {
		return nil, domain.NewInternalError("failed to look up bookmark", err)
	}

	if existing != nil {
		if err := s.bookmarkRepo.DeleteBookmark(ctx, existing.ID); err != nil {
			return nil, domain.NewInternalError("failed to remove bookmark", err)
		}
		return &dto.BookmarkToggleResponse{QuestionID: questionID, Bookmarked: false}, nil
	}

	bookmark := &domain.BookmarkedQuestion{
		ID:         util.NewULID(),
		UserID:     userID,
		QuestionID: questionID,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.bookmarkRepo.CreateBookmark(ctx, bookmark); err != nil {
		return nil, domain.NewInternalError("failed to create bookmark", err)
	}
	return &dto.BookmarkToggleResponse{QuestionID: questionID, Bookmarked: true}, nil
}

func (s *profileServiceImpl) ListBookmarks(ctx context.Context, userID string) ([]dto.QuestionResponse, error) {
	questions, err := s.bookmarkRepo.ListBookmarkedQuestions(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("failed to list bookmarks", err)
	}
	responses := make([]dto.QuestionResponse, 0, len(questions))
	for _, q := range questions {
		responses = append(responses, toQuestionResponse(&q))
	}
	return responses, nil
}

func (s *profileServiceImpl) GrantDailyTokensToAll(ctx context.Context) (int, error) {
	profiles, err := s.profileRepo.ListProfiles(ctx)
	if err != nil {
		return 0, domain.NewInternalError("failed to list profiles", err)
	}

	today := s.clock.Now()
	granted := make(chan string, len(profiles))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(dailyGrantWorkers)
	for i := range profiles {
		profile := profiles[i]
		g.Go(func() error {
			if !profile.GrantDailyTokens(today) {
				return nil
			}
			profile.UpdatedAt = today
			if err := s.profileRepo.UpdateProfile(gCtx, &profile); err != nil {
				return fmt.Errorf("profile %s: %w", profile.ID, err)
			}
			granted <- profile.UserID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, domain.NewInternalError("daily grant sweep failed", err)
	}
	close(granted)

	count := len(granted)
	logger.Get().Info("Daily token grant sweep finished",
		zap.Int("profiles", len(profiles)),
		zap.Int("granted", count))
	return count, nil
}

func (s *profileServiceImpl) loadProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	profile, err := s.profileRepo.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("failed to fetch profile", err)
	}
	if profile == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf("Profile not found for user: %s", userID))
	}
	return profile, nil
}
