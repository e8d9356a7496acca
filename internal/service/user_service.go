package service

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/repository"
	"alcyxob/workout-tracker/internal/theme"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidSettings = errors.New("invalid settings")
)

const maxRestTimerSeconds = 60 * 60

type UserService interface {
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*domain.User, error)
	UpdateSettings(ctx context.Context, userID primitive.ObjectID, settings domain.Settings) (*domain.Settings, error)
	// ResolveTheme turns the stored theme input into concrete colors.
	ResolveTheme(ctx context.Context, userID primitive.ObjectID) (theme.Palette, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func validateSettings(settings domain.Settings) error {
	t := settings.Theme
	switch {
	case t.Hue < 0 || t.Hue > 360:
		return fmt.Errorf("%w: hue must be within 0-360", ErrInvalidSettings)
	case t.Saturation < 0 || t.Saturation > 100,
		t.Lightness < 0 || t.Lightness > 100,
		t.Softness < 0 || t.Softness > 100:
		return fmt.Errorf("%w: saturation, lightness and softness must be within 0-100", ErrInvalidSettings)
	case settings.RestTimerSeconds < 0 || settings.RestTimerSeconds > maxRestTimerSeconds:
		return fmt.Errorf("%w: rest timer must be within 0-%d seconds", ErrInvalidSettings, maxRestTimerSeconds)
	case settings.WeightUnit != domain.UnitKilograms && settings.WeightUnit != domain.UnitPounds:
		return fmt.Errorf("%w: unknown weight unit %q", ErrInvalidSettings, settings.WeightUnit)
	}
	return nil
}

func (s *userService) UpdateSettings(ctx context.Context, userID primitive.ObjectID, settings domain.Settings) (*domain.Settings, error) {
	if settings.RestTimerSeconds == 0 {
		settings.RestTimerSeconds = domain.DefaultRestTimerSeconds
	}
	if settings.WeightUnit == "" {
		settings.WeightUnit = domain.UnitKilograms
	}
	if err := validateSettings(settings); err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateSettings(ctx, userID, settings); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &settings, nil
}

func (s *userService) ResolveTheme(ctx context.Context, userID primitive.ObjectID) (theme.Palette, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return theme.Palette{}, err
	}
	t := user.Settings.Theme
	return theme.Resolve(theme.Config{
		Hue:        t.Hue,
		Saturation: t.Saturation,
		Lightness:  t.Lightness,
		Softness:   t.Softness,
		Dark:       t.Dark,
	}), nil
}
