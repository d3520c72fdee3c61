package learner

import (
	"context"
	"errors"
)

// LearnerModel a registered learner, the identity behind every progress record
type LearnerModel struct {
	ID         string `json:"id"`
	Username   string `json:"username" validate:"required,min=2,max=32"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password,omitempty" validate:"required,min=6,max=64"`
	ImageSrc   string `json:"image_src" validate:"omitempty,max=255"`
	LoginRetry int    `json:"-"`
	LastLogin  int64  `json:"-"`
}

// ErrNoSuchLearner failed to validate the credential
var ErrNoSuchLearner = errors.New("No such learner or password is incorrect")

// ErrDuplicatedLearner unique key constraint violation
var ErrDuplicatedLearner = errors.New("Username or email is already registered")

// ErrTooManyRetry login attempts exceeded
var ErrTooManyRetry = errors.New("Too many failed login attempts, please retry later")

type LearnerRepository interface {
	FindByCredential(ctx context.Context, post *LearnerModel) (*LearnerModel, error)
	SaveLearner(ctx context.Context, post *LearnerModel) error
	UpdateLogin(ctx context.Context, post *LearnerModel) error
}

type LearnerUseCase interface {
	SignUp(ctx context.Context, post *LearnerModel) (*LearnerModel, error)
	SignIn(ctx context.Context, post *LearnerModel) (*LearnerModel, error)
	Exists(ctx context.Context, post *LearnerModel) (bool, error)
}
