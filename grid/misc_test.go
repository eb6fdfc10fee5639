package grid

import (
	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var sqlMockFnList = []func() (string, *gorm.DB, sqlmock.Sqlmock, error){
	newGORMPostgresMock,
	newGORMMySQLMock,
}

func openMock(dialector func(mockDB gorm.ConnPool) gorm.Dialector) (*gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return nil, nil, err
	}

	db, err := gorm.Open(dialector(mockDB), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return nil, nil, err
	}

	return db, mock, nil
}

func newGORMMySQLMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	db, mock, err := openMock(func(conn gorm.ConnPool) gorm.Dialector {
		return mysql.New(mysql.Config{
			Conn:                      conn,
			SkipInitializeWithVersion: true,
		})
	})

	return "mysql", db, mock, err
}

func newGORMPostgresMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	db, mock, err := openMock(func(conn gorm.ConnPool) gorm.Dialector {
		return postgres.New(postgres.Config{
			Conn: conn,
		})
	})

	return "postgres", db, mock, err
}
