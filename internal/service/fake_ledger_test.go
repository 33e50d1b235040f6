package service

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/fsdevblog/study-billing/internal/domain"
	"github.com/fsdevblog/study-billing/internal/repository/repoargs"
	"github.com/fsdevblog/study-billing/pkg/uow"
	"github.com/shopspring/decimal"
)

// memLedger хранилище в памяти для проверки свойств леджера без базы. Блокировка юзера повторяет
// SELECT ... FOR UPDATE: держится до конца транзакции. Изменения транзакции видны только ей до коммита.
type memLedger struct {
	mu           sync.RWMutex
	userLocks    map[int64]*sync.Mutex
	users        map[int64]domain.User
	courses      map[string]domain.Course
	transactions []domain.Transaction
	nextID       int64
}

func newMemLedger() *memLedger {
	return &memLedger{
		userLocks: make(map[int64]*sync.Mutex),
		users:     make(map[int64]domain.User),
		courses:   make(map[string]domain.Course),
	}
}

func (m *memLedger) addUser(id int64, deposit decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userLocks[id] = new(sync.Mutex)
	m.users[id] = domain.User{ID: id, Email: fmt.Sprintf("user%d@example.com", id), Balance: deposit}
	if deposit.IsPositive() {
		m.nextID++
		m.transactions = append(m.transactions, domain.Transaction{
			ID: m.nextID, UserID: id, Type: domain.TransactionTypeDeposit, Amount: deposit,
		})
	}
}

func (m *memLedger) addCourse(c domain.Course) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[c.Code] = c
}

func (m *memLedger) addTransaction(t domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t.ID = m.nextID
	m.transactions = append(m.transactions, t)
}

// withCourse подставляет курс по CourseID, как LEFT JOIN courses. Вызывать под m.mu.
func (m *memLedger) withCourse(t domain.Transaction) domain.Transaction {
	if t.CourseID == nil {
		return t
	}
	for _, c := range m.courses {
		if c.ID == *t.CourseID {
			t.Course = &c
			break
		}
	}
	return t
}

func (m *memLedger) userTransactions(userID int64) []domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.Transaction
	for _, t := range m.transactions {
		if t.UserID == userID {
			res = append(res, t)
		}
	}
	return res
}

func (m *memLedger) cachedBalance(userID int64) decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[userID].Balance
}

// memUOW реализует uow.UOW поверх memLedger.
type memUOW struct {
	l *memLedger
}

func (u *memUOW) Register(uow.RepositoryName, uow.RepositoryFactory) error {
	return nil
}

func (u *memUOW) GetRepository(name uow.RepositoryName) (uow.Repository, error) {
	return (&memTX{l: u.l, autocommit: true}).Get(name)
}

func (u *memUOW) Do(ctx context.Context, fn func(context.Context, uow.TX) error) error {
	tx := &memTX{l: u.l, held: make(map[int64]*sync.Mutex), deltas: make(map[int64]decimal.Decimal)}
	defer tx.release()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

type memTX struct {
	l          *memLedger
	autocommit bool
	held       map[int64]*sync.Mutex
	staged     []domain.Transaction
	deltas     map[int64]decimal.Decimal
}

func (t *memTX) Get(name uow.RepositoryName) (uow.Repository, error) {
	switch repoargs.RepositoryName(name) {
	case repoargs.UserRepoName:
		return &memUserRepo{tx: t}, nil
	case repoargs.TransactionRepoName:
		return &memTransactionRepo{tx: t}, nil
	case repoargs.CourseRepoName:
		return &memCourseRepo{l: t.l}, nil
	default:
		return nil, uow.ErrRepositoryNotRegistered
	}
}

func (t *memTX) release() {
	for _, lock := range t.held {
		lock.Unlock()
	}
	t.held = nil
}

func (t *memTX) commit() {
	t.l.mu.Lock()
	defer t.l.mu.Unlock()
	for _, tr := range t.staged {
		t.l.nextID++
		tr.ID = t.l.nextID
		t.l.transactions = append(t.l.transactions, tr)
	}
	for userID, delta := range t.deltas {
		u := t.l.users[userID]
		u.Balance = u.Balance.Add(delta)
		t.l.users[userID] = u
	}
	t.staged = nil
	t.deltas = make(map[int64]decimal.Decimal)
}

type memUserRepo struct {
	tx *memTX
}

func (r *memUserRepo) CreateUser(_ context.Context, user repoargs.CreateUser) (*domain.User, error) {
	l := r.tx.l
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, u := range l.users {
		if u.Email == user.Email {
			return nil, domain.ErrDuplicateKey
		}
	}
	id := int64(len(l.users) + 1)
	u := domain.User{ID: id, Email: user.Email, EncryptedPassword: user.Password, Roles: user.Roles}
	l.users[id] = u
	l.userLocks[id] = new(sync.Mutex)
	return &u, nil
}

func (r *memUserRepo) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	r.tx.l.mu.RLock()
	defer r.tx.l.mu.RUnlock()
	for _, u := range r.tx.l.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r *memUserRepo) GetByID(_ context.Context, userID int64) (*domain.User, error) {
	r.tx.l.mu.RLock()
	defer r.tx.l.mu.RUnlock()
	u, ok := r.tx.l.users[userID]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return &u, nil
}

func (r *memUserRepo) LockByID(ctx context.Context, userID int64) (*domain.User, error) {
	r.tx.l.mu.RLock()
	lock, ok := r.tx.l.userLocks[userID]
	r.tx.l.mu.RUnlock()
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	if !r.tx.autocommit {
		if _, held := r.tx.held[userID]; !held {
			lock.Lock()
			r.tx.held[userID] = lock
		}
	}
	return r.GetByID(ctx, userID)
}

func (r *memUserRepo) AddBalance(_ context.Context, userID int64, delta decimal.Decimal) error {
	if r.tx.autocommit {
		r.tx.deltas = map[int64]decimal.Decimal{userID: delta}
		r.tx.commit()
		return nil
	}
	r.tx.deltas[userID] = r.tx.deltas[userID].Add(delta)
	return nil
}

func (r *memUserRepo) ListBalances(_ context.Context) ([]repoargs.UserBalance, error) {
	r.tx.l.mu.RLock()
	defer r.tx.l.mu.RUnlock()
	res := make([]repoargs.UserBalance, 0, len(r.tx.l.users))
	for _, u := range r.tx.l.users {
		res = append(res, repoargs.UserBalance{UserID: u.ID, Balance: u.Balance})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].UserID < res[j].UserID })
	return res, nil
}

type memCourseRepo struct {
	l *memLedger
}

func (r *memCourseRepo) FindByCode(_ context.Context, code string) (*domain.Course, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	c, ok := r.l.courses[code]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return &c, nil
}

func (r *memCourseRepo) List(_ context.Context) ([]domain.Course, error) {
	r.l.mu.RLock()
	defer r.l.mu.RUnlock()
	res := make([]domain.Course, 0, len(r.l.courses))
	for _, c := range r.l.courses {
		res = append(res, c)
	}
	return res, nil
}

type memTransactionRepo struct {
	tx *memTX
}

func (r *memTransactionRepo) Create(
	_ context.Context,
	transaction repoargs.TransactionCreate,
) (*domain.Transaction, error) {
	t := domain.Transaction{
		CreatedAt: transaction.CreatedAt,
		UserID:    transaction.UserID,
		CourseID:  transaction.CourseID,
		Type:      transaction.Type,
		Amount:    transaction.Amount,
		ExpiresAt: transaction.ExpiresAt,
	}
	r.tx.staged = append(r.tx.staged, t)
	if r.tx.autocommit {
		r.tx.commit()
	}
	return &t, nil
}

func (r *memTransactionRepo) GetUserBalance(_ context.Context, userID int64) (*repoargs.BalanceAggregation, error) {
	sum := repoargs.BalanceAggregation{DepositAmount: decimal.Zero, PaymentAmount: decimal.Zero}
	add := func(t domain.Transaction) {
		if t.UserID != userID {
			return
		}
		if t.Type == domain.TransactionTypeDeposit {
			sum.DepositAmount = sum.DepositAmount.Add(t.Amount)
		} else {
			sum.PaymentAmount = sum.PaymentAmount.Add(t.Amount)
		}
	}

	r.tx.l.mu.RLock()
	committed := append([]domain.Transaction(nil), r.tx.l.transactions...)
	r.tx.l.mu.RUnlock()

	// даем планировщику переключиться между чтением баланса и записью
	runtime.Gosched()

	for _, t := range committed {
		add(t)
	}
	for _, t := range r.tx.staged {
		add(t)
	}
	return &sum, nil
}

func (r *memTransactionRepo) GetByUser(
	_ context.Context,
	userID int64,
	filter domain.TransactionFilter,
) ([]domain.Transaction, error) {
	var res []domain.Transaction
	for _, t := range r.tx.l.userTransactions(userID) {
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if filter.SkipExpired && t.IsExpired(filter.Now) {
			continue
		}
		res = append(res, t)
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].ID > res[j].ID })
	return res, nil
}

func (r *memTransactionRepo) GetForPeriod(
	_ context.Context,
	start, end time.Time,
	tType domain.TransactionType,
) ([]domain.Transaction, error) {
	l := r.tx.l
	l.mu.RLock()
	defer l.mu.RUnlock()

	var res []domain.Transaction
	for _, t := range l.transactions {
		if t.Type != tType || t.CourseID == nil || t.CreatedAt.Before(start) || !t.CreatedAt.Before(end) {
			continue
		}
		res = append(res, l.withCourse(t))
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID < res[j].ID
		}
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

func (r *memTransactionRepo) GetExpiringBetween(
	_ context.Context,
	from, to time.Time,
) ([]repoargs.ExpiringRental, error) {
	l := r.tx.l
	l.mu.RLock()
	defer l.mu.RUnlock()

	var res []repoargs.ExpiringRental
	for _, t := range l.transactions {
		if t.Type != domain.TransactionTypePayment || t.CourseID == nil || t.ExpiresAt == nil {
			continue
		}
		if t.ExpiresAt.Before(from) || !t.ExpiresAt.Before(to) {
			continue
		}
		res = append(res, repoargs.ExpiringRental{Email: l.users[t.UserID].Email, Transaction: l.withCourse(t)})
	}
	sort.SliceStable(res, func(i, j int) bool {
		a, b := res[i].Transaction, res[j].Transaction
		switch {
		case a.UserID != b.UserID:
			return a.UserID < b.UserID
		case !a.ExpiresAt.Equal(*b.ExpiresAt):
			return a.ExpiresAt.Before(*b.ExpiresAt)
		default:
			return a.ID < b.ID
		}
	})
	return res, nil
}
