package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cravecart/internal/domain"
)

// OTPRepo keeps one live login code per phone number.
type OTPRepo interface {
	// SaveCode replaces the code for phone unless the previous one was sent
	// less than minInterval before sentAt, in which case saved is false.
	SaveCode(ctx context.Context, phone, code string, sentAt, expiresAt time.Time, minInterval time.Duration) (saved bool, err error)
	// ConsumeCode deletes the code for phone if it matches, has not expired and
	// has seen fewer than maxAttempts wrong guesses. A wrong guess is counted
	// and the code is dropped once the count reaches maxAttempts.
	ConsumeCode(ctx context.Context, phone, code string, now time.Time, maxAttempts int) error
}

type otpRepo struct {
	db *sql.DB
}

func NewOTPRepo(db *sql.DB) OTPRepo {
	return &otpRepo{db: db}
}

func (r *otpRepo) SaveCode(ctx context.Context, phone, code string, sentAt, expiresAt time.Time, minInterval time.Duration) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO otp_codes (phone, code, expires_at, sent_at, attempts) VALUES ($1, $2, $3, $4, 0)
		ON CONFLICT (phone) DO UPDATE
		SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at, sent_at = EXCLUDED.sent_at, attempts = 0
		WHERE otp_codes.sent_at <= $5`,
		phone, code, expiresAt, sentAt, sentAt.Add(-minInterval),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *otpRepo) ConsumeCode(ctx context.Context, phone, code string, now time.Time, maxAttempts int) error {
	var deleted string
	err := r.db.QueryRowContext(ctx,
		`DELETE FROM otp_codes
		WHERE phone = $1 AND code = $2 AND expires_at > $3 AND attempts < $4
		RETURNING phone`,
		phone, code, now, maxAttempts,
	).Scan(&deleted)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	var attempts int
	err = r.db.QueryRowContext(ctx,
		`UPDATE otp_codes SET attempts = attempts + 1 WHERE phone = $1 RETURNING attempts`,
		phone,
	).Scan(&attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrUnauthorized
	}
	if err != nil {
		return err
	}
	if attempts >= maxAttempts {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM otp_codes WHERE phone = $1 AND attempts >= $2`, phone, maxAttempts); err != nil {
			return err
		}
	}
	return domain.ErrUnauthorized
}
