package usecase

import (
	"context"
	"errors"

	"stockwatch/internal/domain"
)

var ErrNoNotificationAddress = errors.New("no notification address on user record")

type UserUsecase struct {
	users domain.UserRepository
}

func NewUserUsecase(users domain.UserRepository) *UserUsecase {
	return &UserUsecase{users: users}
}

// EnsureUser returns the user for the authenticated subject, creating the
// record on first sight.
func (u *UserUsecase) EnsureUser(ctx context.Context, uid, email string) (*domain.User, error) {
	user, err := u.users.GetByUID(ctx, uid)
	if err == nil {
		return user, nil
	}
	if err != domain.ErrNotFound {
		return nil, err
	}

	newUser := &domain.User{UID: uid, Email: email}
	if createErr := u.users.Create(ctx, newUser); createErr != nil {
		// Two first requests for the same subject can race; if the other
		// one won the insert, use its record.
		if existing, err := u.users.GetByUID(ctx, uid); err == nil {
			return existing, nil
		}
		return nil, createErr
	}

	return newUser, nil
}

// NotificationAddress resolves the e-mail address alerts for ownerUID are
// sent to. A missing user or an empty address is ErrNoNotificationAddress.
func (u *UserUsecase) NotificationAddress(ctx context.Context, ownerUID string) (string, error) {
	user, err := u.users.GetByUID(ctx, ownerUID)
	if err != nil {
		if err == domain.ErrNotFound {
			return "", ErrNoNotificationAddress
		}
		return "", err
	}
	if user.Email == "" {
		return "", ErrNoNotificationAddress
	}
	return user.Email, nil
}
