package signup

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ConsumeAccountOTPSQL flips an account to verified while clearing both
// OTP columns. The WHERE clause re-checks code and expiry so the single
// statement is the consume: if a concurrent attempt already redeemed the
// code, the update matches nothing and returns no row.
var ConsumeAccountOTPSQL = `UPDATE "accounts" AS "acc"
SET
	"is_verified" = TRUE,
	"otp_code" = NULL,
	"otp_expires_at" = NULL,
	"updated_at" = ?
WHERE
	("acc"."email" = ?)
	AND ("acc"."otp_code" = ?)
	AND ("acc"."otp_expires_at" > ?)
RETURNING *;`

type Accounts interface {
	repository.Repository[*Account]

	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)
	Register(ctx context.Context, account *Account) (*Account, error)
	RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error)
	ConsumeOTP(ctx context.Context, email, code string, now time.Time) (*Account, error)
	ConsumeOTPTx(ctx context.Context, tx bun.IDB, email, code string, now time.Time) (*Account, error)
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts                        = (*accounts)(nil)
	_ repository.Repository[*Account] = (*accounts)(nil)
	_ AccountStore                    = (*accounts)(nil)
)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

// GetByEmailTx looks an account up by its email. The value is treated as
// an opaque string: no trimming, no case folding.
func (a *accounts) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email": email,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) Register(ctx context.Context, account *Account) (*Account, error) {
	return a.RegisterTx(ctx, a.db, account)
}

// RegisterTx inserts a new account. The unique index on email is the
// authority on duplicates; when two registrations race, the loser's
// constraint violation surfaces as ErrDuplicateAccount.
func (a *accounts) RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error) {
	prepareAccountDefaults(account)

	if _, err := a.GetByEmailTx(ctx, tx, account.Email); err == nil {
		return nil, ErrDuplicateAccount
	} else if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	created, err := a.Repository.CreateTx(ctx, tx, account)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicateAccount
		}
		return nil, err
	}

	return created, nil
}

func (a *accounts) ConsumeOTP(ctx context.Context, email, code string, now time.Time) (*Account, error) {
	return a.ConsumeOTPTx(ctx, a.db, email, code, now)
}

// ConsumeOTPTx redeems a pending code. The guarded UPDATE is the atomic
// check-and-clear; the follow-up read only classifies a miss into
// unknown account, wrong code, or expired code.
func (a *accounts) ConsumeOTPTx(ctx context.Context, tx bun.IDB, email, code string, now time.Time) (*Account, error) {
	res, err := a.Repository.RawTx(ctx, tx, ConsumeAccountOTPSQL, now, email, code, now)
	if err != nil {
		return nil, err
	}

	if len(res) > 0 {
		return res[0], nil
	}

	record, err := a.GetByEmailTx(ctx, tx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUnknownAccount
		}
		return nil, err
	}

	// A nil challenge covers both a wrong code on a live challenge and an
	// account whose code was redeemed (possibly between the two
	// statements); the caller cannot distinguish them and should not.
	challenge := record.PendingOTP()
	if challenge == nil || challenge.Code != code {
		return nil, ErrInvalidOTP
	}
	if challenge.Expired(now) {
		return nil, ErrOTPExpired
	}

	// The challenge matched on the re-read but the update missed it: a
	// concurrent attempt redeemed it between the two statements, so this
	// attempt lost and the code is spent.
	return nil, ErrInvalidOTP
}
