package pgrepo

import (
	"context"
	"time"

	"github.com/fsdevblog/study-billing/internal/domain"
	"github.com/fsdevblog/study-billing/internal/repository/repoargs"
	"github.com/fsdevblog/study-billing/pkg/uow"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const userColumns = "id, created_at, updated_at, email, encrypted_password, roles, balance"

type UserRepository struct {
	conn uow.DBTX
}

func NewUserRepository(conn uow.DBTX) *UserRepository {
	return &UserRepository{conn: conn}
}

// CreateUser создает юзера в базе данных. В случае конфликта email возвращает ошибку domain.ErrDuplicateKey,
// во всех других случаях - domain.ErrUnknown.
func (u *UserRepository) CreateUser(ctx context.Context, user repoargs.CreateUser) (*domain.User, error) {
	row := u.conn.QueryRow(ctx,
		`INSERT INTO users (email, encrypted_password, roles) VALUES ($1, $2, $3) RETURNING `+userColumns,
		user.Email, user.Password, user.Roles,
	)
	dbUser, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "creating user")
	}
	return dbUser, nil
}

// FindUserByEmail ищет юзера по email. Возвращает ошибку domain.ErrRecordNotFound если запись не найдена,
// во всех других случаях - domain.ErrUnknown.
func (u *UserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := u.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	dbUser, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "finding user by email %s", email)
	}
	return dbUser, nil
}

func (u *UserRepository) GetByID(ctx context.Context, userID int64) (*domain.User, error) {
	row := u.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	dbUser, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "getting user by id %d", userID)
	}
	return dbUser, nil
}

// LockByID берет эксклюзивную блокировку строки юзера до конца транзакции. Все изменения баланса юзера
// выполняются только под этой блокировкой. Вне транзакции блокировка снимается сразу после запроса.
func (u *UserRepository) LockByID(ctx context.Context, userID int64) (*domain.User, error) {
	row := u.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, userID)
	dbUser, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "locking user %d", userID)
	}
	return dbUser, nil
}

// AddBalance изменяет денормализованный баланс на delta (отрицательная для списаний).
func (u *UserRepository) AddBalance(ctx context.Context, userID int64, delta decimal.Decimal) error {
	tag, err := u.conn.Exec(ctx,
		`UPDATE users SET balance = balance + $2, updated_at = now() WHERE id = $1`,
		userID, delta,
	)
	if err != nil {
		return convertErr(err, "updating balance of user %d", userID)
	}
	if tag.RowsAffected() == 0 {
		return convertErr(pgx.ErrNoRows, "updating balance of user %d", userID)
	}
	return nil
}

// ListBalances возвращает денормализованные балансы всех юзеров, упорядоченные по id.
func (u *UserRepository) ListBalances(ctx context.Context) ([]repoargs.UserBalance, error) {
	rows, err := u.conn.Query(ctx, `SELECT id, balance FROM users ORDER BY id`)
	if err != nil {
		return nil, convertErr(err, "listing balances")
	}
	balances, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (repoargs.UserBalance, error) {
		var b repoargs.UserBalance
		scanErr := row.Scan(&b.UserID, &b.Balance)
		return b, scanErr //nolint:wrapcheck
	})
	if err != nil {
		return nil, convertErr(err, "listing balances")
	}
	return balances, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user                 domain.User
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(
		&user.ID,
		&createdAt,
		&updatedAt,
		&user.Email,
		&user.EncryptedPassword,
		&user.Roles,
		&user.Balance,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	user.CreatedAt = createdAt.UTC()
	user.UpdatedAt = updatedAt.UTC()
	return &user, nil
}
