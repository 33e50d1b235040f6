package pgrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fsdevblog/study-billing/internal/domain"
	"github.com/fsdevblog/study-billing/internal/repository/repoargs"
	"github.com/fsdevblog/study-billing/pkg/uow"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	transactionColumns  = "t.id, t.created_at, t.user_id, t.course_id, t.type, t.amount, t.expires_at"
	joinedCourseColumns = "c.id, c.code, c.title, c.course_type, c.price"
)

// TransactionRepository леджер. Записи только добавляются, UPDATE и DELETE по таблице transactions не выполняются.
type TransactionRepository struct {
	conn uow.DBTX
}

func NewTransactionRepository(conn uow.DBTX) *TransactionRepository {
	return &TransactionRepository{conn: conn}
}

func (r *TransactionRepository) Create(
	ctx context.Context,
	transaction repoargs.TransactionCreate,
) (*domain.Transaction, error) {
	createdAt := transaction.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	row := r.conn.QueryRow(ctx,
		`INSERT INTO transactions AS t (user_id, course_id, type, amount, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+transactionColumns,
		transaction.UserID,
		transaction.CourseID,
		string(transaction.Type),
		transaction.Amount,
		createdAt,
		transaction.ExpiresAt,
	)

	var tr transactionRow
	if err := row.Scan(tr.dest()...); err != nil {
		return nil, convertErr(err, "creating %s transaction for user %d", transaction.Type, transaction.UserID)
	}
	dbTrans := tr.model()
	return &dbTrans, nil
}

// GetUserBalance считает суммы пополнений и списаний юзера одним запросом, поэтому обе суммы берутся
// из одного снимка данных.
func (r *TransactionRepository) GetUserBalance(
	ctx context.Context,
	userID int64,
) (*repoargs.BalanceAggregation, error) {
	row := r.conn.QueryRow(ctx,
		`SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'deposit'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'payment'), 0)
		FROM transactions
		WHERE user_id = $1`,
		userID,
	)

	var sum repoargs.BalanceAggregation
	if err := row.Scan(&sum.DepositAmount, &sum.PaymentAmount); err != nil {
		return nil, convertErr(err, "getting balance sum by userID %d", userID)
	}
	return &sum, nil
}

// GetByUser возвращает историю транзакций юзера, новые первыми.
func (r *TransactionRepository) GetByUser(
	ctx context.Context,
	userID int64,
	filter domain.TransactionFilter,
) ([]domain.Transaction, error) {
	var (
		conds = []string{"t.user_id = $1"}
		args  = []any{userID}
	)
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		conds = append(conds, fmt.Sprintf("t.type = $%d", len(args)))
	}
	if filter.CourseCode != "" {
		args = append(args, filter.CourseCode)
		conds = append(conds, fmt.Sprintf("c.code = $%d", len(args)))
	}
	if filter.SkipExpired {
		args = append(args, filter.Now)
		conds = append(conds, fmt.Sprintf("(t.expires_at IS NULL OR t.expires_at > $%d)", len(args)))
	}

	query := `SELECT ` + transactionColumns + `, ` + joinedCourseColumns + `
		FROM transactions t
		LEFT JOIN courses c ON c.id = t.course_id
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY t.created_at DESC, t.id DESC`

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, convertErr(err, "transactions of user %d", userID)
	}
	transactions, err := pgx.CollectRows(rows, scanTransactionWithCourse)
	if err != nil {
		return nil, convertErr(err, "transactions of user %d", userID)
	}
	return transactions, nil
}

// GetForPeriod возвращает транзакции типа tType со ссылкой на курс, созданные в [start, end).
// Course у транзакции nil, если курс уже удален.
func (r *TransactionRepository) GetForPeriod(
	ctx context.Context,
	start, end time.Time,
	tType domain.TransactionType,
) ([]domain.Transaction, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT `+transactionColumns+`, `+joinedCourseColumns+`
		FROM transactions t
		LEFT JOIN courses c ON c.id = t.course_id
		WHERE t.type = $1 AND t.course_id IS NOT NULL AND t.created_at >= $2 AND t.created_at < $3
		ORDER BY t.created_at, t.id`,
		string(tType), start, end,
	)
	if err != nil {
		return nil, convertErr(err, "transactions for period %s - %s", start, end)
	}
	transactions, err := pgx.CollectRows(rows, scanTransactionWithCourse)
	if err != nil {
		return nil, convertErr(err, "transactions for period %s - %s", start, end)
	}
	return transactions, nil
}

// GetExpiringBetween возвращает аренды всех юзеров со сроком в [from, to), упорядоченные по юзеру и сроку.
func (r *TransactionRepository) GetExpiringBetween(
	ctx context.Context,
	from, to time.Time,
) ([]repoargs.ExpiringRental, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT u.email, `+transactionColumns+`, `+joinedCourseColumns+`
		FROM transactions t
		JOIN users u ON u.id = t.user_id
		LEFT JOIN courses c ON c.id = t.course_id
		WHERE t.type = 'payment' AND t.course_id IS NOT NULL AND t.expires_at >= $1 AND t.expires_at < $2
		ORDER BY t.user_id, t.expires_at, t.id`,
		from, to,
	)
	if err != nil {
		return nil, convertErr(err, "rentals expiring between %s - %s", from, to)
	}
	rentals, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (repoargs.ExpiringRental, error) {
		var (
			email string
			tr    transactionRow
			jc    joinedCourse
		)
		dest := append([]any{&email}, tr.dest()...)
		if scanErr := row.Scan(append(dest, jc.dest()...)...); scanErr != nil {
			return repoargs.ExpiringRental{}, scanErr //nolint:wrapcheck
		}
		transaction := tr.model()
		transaction.Course = jc.course()
		return repoargs.ExpiringRental{Email: email, Transaction: transaction}, nil
	})
	if err != nil {
		return nil, convertErr(err, "rentals expiring between %s - %s", from, to)
	}
	return rentals, nil
}

// joinedCourse колонки курса из LEFT JOIN, все nullable.
type joinedCourse struct {
	id         *int64
	code       *string
	title      *string
	courseType *string
	price      *decimal.Decimal
}

func (j *joinedCourse) dest() []any {
	return []any{&j.id, &j.code, &j.title, &j.courseType, &j.price}
}

func (j *joinedCourse) course() *domain.Course {
	if j.id == nil {
		return nil
	}
	course := domain.Course{ID: *j.id, Price: j.price}
	if j.code != nil {
		course.Code = *j.code
	}
	if j.title != nil {
		course.Title = *j.title
	}
	if j.courseType != nil {
		course.Type = domain.CourseType(*j.courseType)
	}
	return &course
}

type transactionRow struct {
	id        int64
	createdAt time.Time
	userID    int64
	courseID  *int64
	tType     string
	amount    decimal.Decimal
	expiresAt *time.Time
}

func (r *transactionRow) dest() []any {
	return []any{&r.id, &r.createdAt, &r.userID, &r.courseID, &r.tType, &r.amount, &r.expiresAt}
}

func (r *transactionRow) model() domain.Transaction {
	t := domain.Transaction{
		ID:        r.id,
		CreatedAt: r.createdAt.UTC(),
		UserID:    r.userID,
		CourseID:  r.courseID,
		Type:      domain.TransactionType(r.tType),
		Amount:    r.amount,
	}
	if r.expiresAt != nil {
		expiresAt := r.expiresAt.UTC()
		t.ExpiresAt = &expiresAt
	}
	return t
}

func scanTransactionWithCourse(row pgx.CollectableRow) (domain.Transaction, error) {
	var (
		tr transactionRow
		jc joinedCourse
	)
	if err := row.Scan(append(tr.dest(), jc.dest()...)...); err != nil {
		return domain.Transaction{}, err //nolint:wrapcheck
	}
	t := tr.model()
	t.Course = jc.course()
	return t, nil
}
