package learner

import (
	"context"

	"github.com/pot-code/lingo-server/internal/infrastructure/driver"
)

type LearnerMySQL struct {
	Conn driver.ITransactionalDB
}

var _ LearnerRepository = &LearnerMySQL{}

func NewLearnerRepository(Conn driver.ITransactionalDB) *LearnerMySQL {
	return &LearnerMySQL{Conn}
}

// FindByCredential query learner by username or email, nil if neither matches
func (repo *LearnerMySQL) FindByCredential(ctx context.Context, post *LearnerModel) (*LearnerModel, error) {
	conn := repo.Conn
	username := post.Username
	email := post.Email
	if email == "" {
		email = username
	}
	rows, err := conn.QueryContext(ctx, `
SELECT id, username, password, email, image_src, login_retry, last_login
FROM learner
WHERE username = $1 OR email = $2`, username, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		lm := new(LearnerModel)
		if err := rows.Scan(&lm.ID, &lm.Username, &lm.Password, &lm.Email, &lm.ImageSrc, &lm.LoginRetry, &lm.LastLogin); err != nil {
			return nil, err
		}
		return lm, nil
	}
	return nil, rows.Err()
}

func (repo *LearnerMySQL) SaveLearner(ctx context.Context, post *LearnerModel) error {
	conn := repo.Conn
	_, err := conn.ExecContext(ctx, `
INSERT INTO learner(id, username, password, email, image_src, login_retry, last_login)
VALUES($1, $2, $3, $4, $5, $6, $7)`,
		post.ID, post.Username, post.Password, post.Email, post.ImageSrc, post.LoginRetry, post.LastLogin)

	if driver.IsUniqueViolation(err) {
		return ErrDuplicatedLearner
	}
	return err
}

func (repo *LearnerMySQL) UpdateLogin(ctx context.Context, post *LearnerModel) error {
	conn := repo.Conn
	_, err := conn.ExecContext(ctx, `
UPDATE learner
SET login_retry = $1,
    last_login = $2
WHERE id = $3`, post.LoginRetry, post.LastLogin, post.ID)
	return err
}
