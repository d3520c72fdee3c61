package learner

import (
	"context"
	"time"

	"github.com/pot-code/lingo-server/internal/infrastructure/uuid"
	"go.elastic.co/apm"
	"golang.org/x/crypto/bcrypt"
)

// LearnerUseCaseImpl ...
type LearnerUseCaseImpl struct {
	LearnerRepository LearnerRepository
	UUIDGenerator     uuid.Generator
	MaxLoginAttempts  int
	RetryTimeout      time.Duration

	now func() time.Time
}

var _ LearnerUseCase = &LearnerUseCaseImpl{}

// NewLearnerUseCase ...
func NewLearnerUseCase(
	LearnerRepository LearnerRepository,
	UUIDGenerator uuid.Generator,
	MaxLoginAttempts int,
	RetryTimeout time.Duration,
) *LearnerUseCaseImpl {
	return &LearnerUseCaseImpl{
		LearnerRepository: LearnerRepository,
		UUIDGenerator:     UUIDGenerator,
		MaxLoginAttempts:  MaxLoginAttempts,
		RetryTimeout:      RetryTimeout,
		now:               time.Now,
	}
}

// SignUp create a learner
func (lu *LearnerUseCaseImpl) SignUp(ctx context.Context, post *LearnerModel) (*LearnerModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "LearnerUseCaseImpl.SignUp", "service")
	defer apmSpan.End()

	lr := lu.LearnerRepository
	// search for existence
	if m, err := lr.FindByCredential(ctx, post); err != nil {
		return nil, err
	} else if m != nil {
		return nil, ErrDuplicatedLearner
	}

	id, err := lu.UUIDGenerator.Generate()
	if err != nil {
		return nil, err
	}
	post.ID = id

	password, err := bcrypt.GenerateFromPassword([]byte(post.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	post.Password = string(password)

	if err := lr.SaveLearner(ctx, post); err != nil {
		return nil, err
	}
	post.Password = ""
	return post, nil
}

// SignIn verify credential, failed attempts are counted and lock the account for RetryTimeout
func (lu *LearnerUseCaseImpl) SignIn(ctx context.Context, post *LearnerModel) (*LearnerModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "LearnerUseCaseImpl.SignIn", "service")
	defer apmSpan.End()

	lr := lu.LearnerRepository
	lm, err := lr.FindByCredential(ctx, post)
	if err != nil {
		return nil, err
	}
	if lm == nil {
		return nil, ErrNoSuchLearner
	}

	now := lu.now()
	if lu.MaxLoginAttempts > 0 && lm.LoginRetry >= lu.MaxLoginAttempts {
		if now.Sub(time.Unix(lm.LastLogin, 0)) < lu.RetryTimeout {
			return nil, ErrTooManyRetry
		}
		lm.LoginRetry = 0
	}

	if err := bcrypt.CompareHashAndPassword([]byte(lm.Password), []byte(post.Password)); err != nil {
		if err != bcrypt.ErrMismatchedHashAndPassword {
			return nil, err
		}
		lm.LoginRetry++
		lm.LastLogin = now.Unix()
		if err := lr.UpdateLogin(ctx, lm); err != nil {
			return nil, err
		}
		return nil, ErrNoSuchLearner
	}

	// reset retry number
	lm.LoginRetry = 0
	lm.LastLogin = now.Unix()
	if err := lr.UpdateLogin(ctx, lm); err != nil {
		return nil, err
	}
	lm.Password = ""
	return lm, nil
}

// Exists find if learner exists in database
func (lu *LearnerUseCaseImpl) Exists(ctx context.Context, post *LearnerModel) (bool, error) {
	apmSpan, _ := apm.StartSpan(ctx, "LearnerUseCaseImpl.Exists", "service")
	defer apmSpan.End()

	lm, err := lu.LearnerRepository.FindByCredential(ctx, post)
	if err != nil {
		return false, err
	}
	return lm != nil, nil
}
