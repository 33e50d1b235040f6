package pgrepo

import (
	"fmt"

	"github.com/fsdevblog/study-billing/internal/repository/repoargs"
	"github.com/fsdevblog/study-billing/pkg/uow"
)

// NewUnitOfWork создает UOW поверх пула и регистрирует в нем все репозитории. Ошибки BEGIN и COMMIT
// классифицируются так же, как ошибки запросов.
func NewUnitOfWork(conn uow.Conn, opts ...uow.Option) (*uow.UnitOfWork, error) {
	opts = append([]uow.Option{uow.WithErrorConverter(ConvertTxErr)}, opts...)
	unitOfWork := uow.NewUnitOfWork(conn, opts...)

	factories := map[repoargs.RepositoryName]uow.RepositoryFactory{
		repoargs.UserRepoName: func(dbtx uow.DBTX) uow.Repository {
			return NewUserRepository(dbtx)
		},
		repoargs.CourseRepoName: func(dbtx uow.DBTX) uow.Repository {
			return NewCourseRepository(dbtx)
		},
		repoargs.TransactionRepoName: func(dbtx uow.DBTX) uow.Repository {
			return NewTransactionRepository(dbtx)
		},
	}
	for name, factory := range factories {
		if regErr := unitOfWork.Register(uow.RepositoryName(name), factory); regErr != nil {
			return nil, fmt.Errorf("init UOW: %s", regErr.Error())
		}
	}
	return unitOfWork, nil
}

// ConvertTxErr приводит ошибку открытия или коммита транзакции к ошибкам domain.
func ConvertTxErr(err error) error {
	return convertErr(err, "transaction")
}
