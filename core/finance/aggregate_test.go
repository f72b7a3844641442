package finance

import (
	"testing"
	"time"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/pt_BR"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ekklesia/core"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s; got %s", want, got)
}

func TestGroupByCategory(t *testing.T) {
	names := map[string]string{"c1": "Tithes", "c2": "Offering"}
	txs := []Transaction{
		{CategoryID: "c1", Amount: dec("100")},
		{CategoryID: "c1", Amount: dec("50")},
		{CategoryID: "c2", Amount: dec("30")},
	}

	got := GroupByCategory(txs, names)
	require.Len(t, got, 2)
	assert.Equal(t, "Tithes", got[0].Category)
	assertDecimal(t, "150", got[0].Total)
	assert.Equal(t, "Offering", got[1].Category)
	assertDecimal(t, "30", got[1].Total)

	t.Run("unknown categories", func(t *testing.T) {
		got := GroupByCategory(append(txs, Transaction{CategoryID: "lol", Amount: dec("0.10")}, Transaction{Amount: dec("0.20")}), names)
		require.Len(t, got, 3)
		assert.Equal(t, UncategorizedLabel, got[2].Category)
		assertDecimal(t, "0.30", got[2].Total)
	})

	t.Run("totals are conserved", func(t *testing.T) {
		sum := decimal.Zero
		for _, ct := range GroupByCategory(txs, names) {
			sum = sum.Add(ct.Total)
		}
		assertDecimal(t, "180", sum)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, GroupByCategory(nil, names))
	})
}

func TestGroupByMonth(t *testing.T) {
	txs := []Transaction{
		{Kind: KindExpense, Date: core.NewDate(2024, 1, 20), Amount: dec("80")},
		{Kind: KindIncome, Date: core.NewDate(2024, 3, 1), Amount: dec("10.55")},
		{Kind: KindIncome, Date: core.NewDate(2024, 1, 5), Amount: dec("200")},
		{Kind: KindExpense, Date: core.NewDate(2023, 12, 31), Amount: dec("0.45")},
	}

	got := GroupByMonth(txs, en.New())
	require.Len(t, got, 3)

	assert.Equal(t, "Dec/23", got[0].Label)
	assertDecimal(t, "0", got[0].Income)
	assertDecimal(t, "0.45", got[0].Expense)
	assertDecimal(t, "-0.45", got[0].Balance)

	assert.Equal(t, 2024, got[1].Year)
	assert.Equal(t, time.January, got[1].Month)
	assert.Equal(t, "Jan/24", got[1].Label)
	assertDecimal(t, "200", got[1].Income)
	assertDecimal(t, "80", got[1].Expense)
	assertDecimal(t, "120", got[1].Balance)

	assert.Equal(t, "Mar/24", got[2].Label)
	assertDecimal(t, "10.55", got[2].Income)
	assertDecimal(t, "0", got[2].Expense)
	assertDecimal(t, "10.55", got[2].Balance)

	t.Run("totals are conserved", func(t *testing.T) {
		income, expense := decimal.Zero, decimal.Zero
		for _, mt := range got {
			income = income.Add(mt.Income)
			expense = expense.Add(mt.Expense)
		}
		summary := Summarize(txs)
		assertDecimal(t, summary.Income.String(), income)
		assertDecimal(t, summary.Expense.String(), expense)
	})
}

func TestMonthLabel(t *testing.T) {
	tests := []struct {
		name  string
		tr    locales.Translator
		month time.Month
		want  string
	}{
		{name: "en", tr: en.New(), month: time.February, want: "Feb/24"},
		{name: "pt_BR", tr: pt_BR.New(), month: time.February, want: "Fev/24"},
		{name: "pt_BR may", tr: pt_BR.New(), month: time.May, want: "Mai/24"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MonthLabel(tt.tr, 2024, tt.month))
		})
	}
}

func TestSummarize(t *testing.T) {
	txs := []Transaction{
		{Kind: KindIncome, Amount: dec("200"), IsPaid: true},
		{Kind: KindIncome, Amount: dec("50.50")},
		{Kind: KindExpense, Amount: dec("80"), IsPaid: true},
		{Kind: KindExpense, Amount: dec("19.99")},
	}
	s := Summarize(txs)
	assertDecimal(t, "250.50", s.Income)
	assertDecimal(t, "99.99", s.Expense)
	assertDecimal(t, "150.51", s.Balance)
	assertDecimal(t, "200", s.IncomePaid)
	assertDecimal(t, "50.50", s.IncomePending)
	assertDecimal(t, "80", s.ExpensePaid)
	assertDecimal(t, "19.99", s.ExpensePending)

	s = Summarize(nil)
	assert.True(t, s.Balance.IsZero())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Income ")
	require.NoError(t, err)
	assert.Equal(t, KindIncome, k)

	_, err = ParseKind("gift")
	assert.EqualError(t, err, `unknown transaction kind "gift"`)
	_, hasStack := err.(interface{ StackTrace() errors.StackTrace })
	assert.True(t, hasStack)
}

func TestCents(t *testing.T) {
	assert.Equal(t, int64(1050), ToCents(dec("10.50")))
	assert.Equal(t, int64(1001), ToCents(dec("10.005")))
	assert.Equal(t, int64(-1001), ToCents(dec("-10.005")))
	assertDecimal(t, "10.5", FromCents(1050))
}
