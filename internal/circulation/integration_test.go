package circulation

// Transactional tests against a real MySQL instance. They are skipped unless
// BIBLIO_TEST_DSN is set, e.g.
//
//	BIBLIO_TEST_DSN="biblio:biblio@tcp(127.0.0.1:3306)/biblio_test?parseTime=true&loc=UTC&innodb_lock_wait_timeout=3"

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biblio-backend/internal/catalog"
	"biblio-backend/internal/platform/apperr"
	"biblio-backend/internal/readers"
)

var seq atomic.Int64

func uniq(prefix string) string {
	return fmt.Sprintf("%s%d%03d", prefix, time.Now().UnixNano()%1_000_000_000, seq.Add(1))
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("BIBLIO_TEST_DSN")
	if dsn == "" {
		t.Skip("BIBLIO_TEST_DSN not set, skipping MySQL integration test")
	}
	conn, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	require.NoError(t, conn.Ping())
	applySchema(t, conn)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func applySchema(t *testing.T, conn *sql.DB) {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "..", "schema", "schema.sql"))
	require.NoError(t, err)

	var sb strings.Builder
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	for _, stmt := range strings.Split(sb.String(), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		_, err := conn.Exec(stmt)
		require.NoError(t, err, "schema statement failed: %s", stmt)
	}
}

type fixture struct {
	conn    *sql.DB
	svc     *Service
	store   *Store
	catalog *catalog.Store
	readers *readers.Store
}

func newFixture(t *testing.T) *fixture {
	conn := openTestDB(t)
	return &fixture{
		conn:    conn,
		svc:     NewService(conn, Policy{LoanPeriodDays: 30, FinePerDay: 2}),
		store:   NewStore(conn),
		catalog: catalog.NewStore(conn),
		readers: readers.NewStore(conn),
	}
}

func (f *fixture) seedTitleWithCopy(t *testing.T) (isbn, copyID string) {
	t.Helper()
	ctx := context.Background()
	isbn = uniq("97")
	require.NoError(t, f.catalog.InsertTitle(ctx, &catalog.Title{ISBN: isbn, Name: "t-" + isbn}))
	copyID = uniq("C")
	_, err := f.catalog.InsertCopy(ctx, isbn, copyID)
	require.NoError(t, err)
	return isbn, copyID
}

func (f *fixture) seedCopy(t *testing.T, isbn string) string {
	t.Helper()
	copyID := uniq("C")
	_, err := f.catalog.InsertCopy(context.Background(), isbn, copyID)
	require.NoError(t, err)
	return copyID
}

func (f *fixture) seedReader(t *testing.T, maxLoans int) string {
	t.Helper()
	cardNo := uniq("R")
	require.NoError(t, f.readers.Insert(context.Background(), &readers.Reader{
		CardNo: cardNo, Name: "reader " + cardNo, MaxLoans: maxLoans,
	}))
	return cardNo
}

func (f *fixture) readerLoanCount(t *testing.T, cardNo string) int {
	t.Helper()
	r, err := f.readers.Get(context.Background(), cardNo)
	require.NoError(t, err)
	return r.CurrentLoanCount
}

func (f *fixture) copyAvailability(t *testing.T, copyID string) string {
	t.Helper()
	c, err := f.catalog.GetCopy(context.Background(), copyID)
	require.NoError(t, err)
	return c.Availability
}

func (f *fixture) titleAvailable(t *testing.T, isbn string) int {
	t.Helper()
	title, err := f.catalog.GetTitle(context.Background(), isbn)
	require.NoError(t, err)
	return title.AvailableCopies
}

func Test_Borrow_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	isbn, copyID := f.seedTitleWithCopy(t)
	cardNo := f.seedReader(t, 2)

	require.Equal(t, 1, f.titleAvailable(t, isbn))

	res, err := f.svc.Borrow(ctx, BorrowRequest{CardNo: cardNo, CopyID: copyID})
	require.NoError(t, err)
	assert.Positive(t, res.LoanID)
	assert.True(t, res.DueDate.Equal(DueDate(time.Now().UTC(), 30)))

	assert.Equal(t, "ON_LOAN", f.copyAvailability(t, copyID))
	assert.Equal(t, 1, f.readerLoanCount(t, cardNo))
	assert.Equal(t, 0, f.titleAvailable(t, isbn))

	open, err := f.store.FindOpenLoanForCopy(ctx, copyID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, res.LoanID, open.LoanID)

	ret, err := f.svc.Return(ctx, res.LoanID)
	require.NoError(t, err)
	assert.Zero(t, ret.FineAmount)
	assert.Zero(t, ret.OverdueDays)

	assert.Equal(t, "AVAILABLE", f.copyAvailability(t, copyID))
	assert.Equal(t, 0, f.readerLoanCount(t, cardNo))
	assert.Equal(t, 1, f.titleAvailable(t, isbn))

	gone, err := f.store.FindOpenLoanForCopy(ctx, copyID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func Test_Return_OverdueFine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, copyID := f.seedTitleWithCopy(t)
	cardNo := f.seedReader(t, 2)

	res, err := f.svc.Borrow(ctx, BorrowRequest{CardNo: cardNo, CopyID: copyID})
	require.NoError(t, err)

	// backdate the due date 5 days; at 2/day the fine must be exactly 10
	backdated := civilDate(time.Now().UTC()).AddDate(0, 0, -5)
	_, err = f.conn.ExecContext(ctx, `UPDATE loans SET due_date = ? WHERE loan_id = ?`, backdated, res.LoanID)
	require.NoError(t, err)

	ret, err := f.svc.Return(ctx, res.LoanID)
	require.NoError(t, err)
	assert.Equal(t, 5, ret.OverdueDays)
	assert.InDelta(t, 10.0, ret.FineAmount, 0.0001)

	// the fine is written once and never changes afterwards
	loan, err := f.store.GetLoan(ctx, res.LoanID)
	require.NoError(t, err)
	assert.Equal(t, StatusReturned, loan.Status)
	assert.InDelta(t, 10.0, loan.FineAmount, 0.0001)
	assert.True(t, loan.ReturnDate.Valid)
}

func Test_Return_Idempotence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, copyID := f.seedTitleWithCopy(t)
	cardNo := f.seedReader(t, 2)

	res, err := f.svc.Borrow(ctx, BorrowRequest{CardNo: cardNo, CopyID: copyID})
	require.NoError(t, err)

	_, err = f.svc.Return(ctx, res.LoanID)
	require.NoError(t, err)

	countAfterFirst := f.readerLoanCount(t, cardNo)

	_, err = f.svc.Return(ctx, res.LoanID)
	require.Error(t, err)
	assert.Equal(t, ReasonAlreadyReturned, apperr.Reason(err))

	// second call changed nothing
	assert.Equal(t, countAfterFirst, f.readerLoanCount(t, cardNo))
	assert.Equal(t, "AVAILABLE", f.copyAvailability(t, copyID))
}

func Test_Borrow_QuotaExceeded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	isbn, copyA := f.seedTitleWithCopy(t)
	copyB := f.seedCopy(t, isbn)
	cardNo := f.seedReader(t, 1)

	_, err := f.svc.Borrow(ctx, BorrowRequest{CardNo: cardNo, CopyID: copyA})
	require.NoError(t, err)

	_, err = f.svc.Borrow(ctx, BorrowRequest{CardNo: cardNo, CopyID: copyB})
	require.Error(t, err)
	assert.Equal(t, ReasonQuotaExceeded, apperr.Reason(err))

	// the failed call left no trace
	assert.Equal(t, 1, f.readerLoanCount(t, cardNo))
	assert.Equal(t, "AVAILABLE", f.copyAvailability(t, copyB))
}

func Test_Borrow_PreconditionFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("unknown_reader", func(t *testing.T) {
		_, copyID := f.seedTitleWithCopy(t)
		_, err := f.svc.Borrow(ctx, BorrowRequest{CardNo: uniq("missing"), CopyID: copyID})
		require.Error(t, err)
		assert.Equal(t, ReasonReaderNotFound, apperr.Reason(err))
	})

	t.Run("unknown_copy", func(t *testing.T) {
		cardNo := f.seedReader(t, 2)
		_, err := f.svc.Borrow(ctx, BorrowRequest{CardNo: cardNo, CopyID: uniq("missing")})
		require.Error(t, err)
		assert.Equal(t, ReasonCopyNotFound, apperr.Reason(err))
	})

	t.Run("suspended_reader", func(t *testing.T) {
		_, copyID := f.seedTitleWithCopy(t)
		cardNo := f.seedReader(t, 2)
		_, err := f.conn.ExecContext(ctx, `UPDATE readers SET status = 'SUSPENDED' WHERE card_no = ?`, cardNo)
		require.NoError(t, err)

		_, err = f.svc.Borrow(ctx, BorrowRequest{CardNo: cardNo, CopyID: copyID})
		require.Error(t, err)
		assert.Equal(t, ReasonReaderSuspended, apperr.Reason(err))
	})

	t.Run("damaged_copy", func(t *testing.T) {
		_, copyID := f.seedTitleWithCopy(t)
		cardNo := f.seedReader(t, 2)
		_, err := f.catalog.UpdateCopyCondition(ctx, copyID, "DAMAGED")
		require.NoError(t, err)

		_, err = f.svc.Borrow(ctx, BorrowRequest{CardNo: cardNo, CopyID: copyID})
		require.Error(t, err)
		assert.Equal(t, ReasonCopyDamagedOrLost, apperr.Reason(err))
	})

	t.Run("copy_already_on_loan", func(t *testing.T) {
		_, copyID := f.seedTitleWithCopy(t)
		first := f.seedReader(t, 2)
		second := f.seedReader(t, 2)

		_, err := f.svc.Borrow(ctx, BorrowRequest{CardNo: first, CopyID: copyID})
		require.NoError(t, err)

		_, err = f.svc.Borrow(ctx, BorrowRequest{CardNo: second, CopyID: copyID})
		require.Error(t, err)
		assert.Equal(t, ReasonCopyUnavailable, apperr.Reason(err))
	})
}

// Two concurrent Borrow calls on the same AVAILABLE copy: exactly one may
// win, the loser sees COPY_UNAVAILABLE (or a retryable lock conflict), and
// the ledger holds exactly one open loan for the copy.
func Test_Borrow_ConcurrentSameCopy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, copyID := f.seedTitleWithCopy(t)
	first := f.seedReader(t, 2)
	second := f.seedReader(t, 2)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, cardNo := range []string{first, second} {
		wg.Add(1)
		go func(i int, cardNo string) {
			defer wg.Done()
			_, errs[i] = f.svc.Borrow(ctx, BorrowRequest{CardNo: cardNo, CopyID: copyID})
		}(i, cardNo)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		reason := apperr.Reason(err)
		assert.Contains(t, []string{ReasonCopyUnavailable, apperr.ReasonLockConflict}, reason)
	}
	assert.Equal(t, 1, successes)

	var openLoans int
	require.NoError(t, f.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM loans WHERE copy_id = ? AND status = 'OPEN'`, copyID).Scan(&openLoans))
	assert.Equal(t, 1, openLoans)
}

// Two concurrent Borrow calls for a reader one below quota: exactly one may
// win and the loan count must match the number of open loans.
func Test_Borrow_ConcurrentQuota(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	isbn, copyA := f.seedTitleWithCopy(t)
	copyB := f.seedCopy(t, isbn)
	cardNo := f.seedReader(t, 1)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, copyID := range []string{copyA, copyB} {
		wg.Add(1)
		go func(i int, copyID string) {
			defer wg.Done()
			_, errs[i] = f.svc.Borrow(ctx, BorrowRequest{CardNo: cardNo, CopyID: copyID})
		}(i, copyID)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		reason := apperr.Reason(err)
		assert.Contains(t, []string{ReasonQuotaExceeded, apperr.ReasonLockConflict}, reason)
	}
	assert.Equal(t, 1, successes)

	var openLoans int
	require.NoError(t, f.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM loans WHERE card_no = ? AND status = 'OPEN'`, cardNo).Scan(&openLoans))
	assert.Equal(t, 1, openLoans)
	assert.Equal(t, openLoans, f.readerLoanCount(t, cardNo))
}

func Test_ListLoans_And_Overdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, copyID := f.seedTitleWithCopy(t)
	cardNo := f.seedReader(t, 2)

	res, err := f.svc.Borrow(ctx, BorrowRequest{CardNo: cardNo, CopyID: copyID})
	require.NoError(t, err)

	openOnly := true
	loans, err := f.svc.ListLoans(ctx, LoanFilter{CardNo: &cardNo, Open: &openOnly}, Page{})
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, res.LoanID, loans[0].LoanID)

	// not overdue yet
	overdue, err := f.svc.ListOverdue(ctx)
	require.NoError(t, err)
	for _, o := range overdue {
		assert.NotEqual(t, res.LoanID, o.LoanID)
	}

	backdated := civilDate(time.Now().UTC()).AddDate(0, 0, -3)
	_, err = f.conn.ExecContext(ctx, `UPDATE loans SET due_date = ? WHERE loan_id = ?`, backdated, res.LoanID)
	require.NoError(t, err)

	overdue, err = f.svc.ListOverdue(ctx)
	require.NoError(t, err)
	var found *OverdueLoanResponse
	for i := range overdue {
		if overdue[i].LoanID == res.LoanID {
			found = &overdue[i]
			break
		}
	}
	require.NotNil(t, found, "backdated loan must appear in the overdue listing")
	assert.Equal(t, 3, found.OverdueDays)
	assert.InDelta(t, 6.0, found.AccruedFine, 0.0001)
	assert.Equal(t, cardNo, found.CardNo)
}
