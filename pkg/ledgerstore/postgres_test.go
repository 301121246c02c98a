package ledgerstore_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lisanmuaddib/resource-pull/pkg/ledgerstore"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("Postgres", func() {
	var (
		sqlDB *sql.DB
		mock  sqlmock.Sqlmock
		store *ledgerstore.Postgres
		ctx   context.Context
	)

	BeforeEach(func() {
		var err error
		sqlDB, mock, err = sqlmock.New()
		Expect(err).NotTo(HaveOccurred())

		gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
			Logger: logger.Discard,
		})
		Expect(err).NotTo(HaveOccurred())

		log := logrus.New()
		log.SetOutput(io.Discard)
		store = ledgerstore.NewPostgres(gdb, log)
		ctx = context.Background()
	})

	AfterEach(func() {
		mock.ExpectClose()
		Expect(sqlDB.Close()).To(Succeed())
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	It("loads every stored number", func() {
		seen := time.Date(2021, 5, 1, 10, 0, 0, 0, time.UTC)
		mock.ExpectQuery(`SELECT \* FROM "phone_numbers"`).
			WillReturnRows(sqlmock.NewRows([]string{"number", "first_seen_at"}).
				AddRow("9876543210", seen).
				AddRow("9876543211", seen.Add(time.Hour)))

		numbers, err := store.LoadMap(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(numbers).To(HaveLen(2))
		Expect(numbers["9876543211"].Equal(seen.Add(time.Hour))).To(BeTrue())
	})

	It("rejects an empty number", func() {
		mock.ExpectQuery(`SELECT \* FROM "phone_numbers"`).
			WillReturnRows(sqlmock.NewRows([]string{"number", "first_seen_at"}).
				AddRow("", time.Now()))

		_, err := store.LoadMap(ctx)
		Expect(errors.Is(err, ledgerstore.ErrMalformedSnapshot)).To(BeTrue())
	})

	It("inserts numbers in a transaction and keeps existing rows", func() {
		seen := time.Date(2021, 5, 1, 10, 0, 0, 0, time.UTC)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "phone_numbers" \("number","first_seen_at"\) VALUES \(\$1,\$2\) ON CONFLICT \("number"\) DO NOTHING`).
			WithArgs("9876543210", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		Expect(store.SaveMap(ctx, map[string]time.Time{"9876543210": seen})).To(Succeed())
	})

	It("rolls back when the insert fails", func() {
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "phone_numbers"`).
			WillReturnError(errors.New("connection lost"))
		mock.ExpectRollback()

		err := store.SaveMap(ctx, map[string]time.Time{"9876543210": time.Now()})
		Expect(err).To(MatchError(ContainSubstring("failed to save phone numbers")))
	})

	It("does not touch the database for an empty save", func() {
		Expect(store.SaveMap(ctx, nil)).To(Succeed())
	})
})
