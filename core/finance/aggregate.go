package finance

import (
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/locales"
	"github.com/shopspring/decimal"
)

// UncategorizedLabel names the group of transactions whose category is unknown.
const UncategorizedLabel = "Uncategorized"

type (
	CategoryTotal struct {
		Category string          `json:"category"`
		Total    decimal.Decimal `json:"total"`
	}

	MonthTotal struct {
		Year    int             `json:"year"`
		Month   time.Month      `json:"month"`
		Label   string          `json:"label"` // MMM/yy
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
		Balance decimal.Decimal `json:"balance"` // Income - Expense
	}

	Summary struct {
		Income         decimal.Decimal `json:"income"`
		Expense        decimal.Decimal `json:"expense"`
		Balance        decimal.Decimal `json:"balance"`
		IncomePaid     decimal.Decimal `json:"income_paid"`
		IncomePending  decimal.Decimal `json:"income_pending"`
		ExpensePaid    decimal.Decimal `json:"expense_paid"`
		ExpensePending decimal.Decimal `json:"expense_pending"`
	}
)

// GroupByCategory sums amounts per category name, in order of first appearance.
// names maps category ids to names; transactions of unknown categories fall under UncategorizedLabel.
func GroupByCategory(txs []Transaction, names map[string]string) []CategoryTotal {
	totals := make([]CategoryTotal, 0)
	index := make(map[string]int)
	for _, tx := range txs {
		name, ok := names[tx.CategoryID]
		if !ok || name == "" {
			name = UncategorizedLabel
		}
		i, seen := index[name]
		if !seen {
			i = len(totals)
			index[name] = i
			totals = append(totals, CategoryTotal{Category: name, Total: decimal.Zero})
		}
		totals[i].Total = totals[i].Total.Add(tx.Amount)
	}
	return totals
}

// GroupByMonth sums incomes and expenses per calendar month of Transaction.Date, oldest month first.
// Labels are formatted with tr, e.g. "Jan/24".
func GroupByMonth(txs []Transaction, tr locales.Translator) []MonthTotal {
	type key struct {
		year  int
		month time.Month
	}

	months := make(map[key]*MonthTotal)
	for _, tx := range txs {
		k := key{year: tx.Date.Year(), month: tx.Date.Month()}
		mt, ok := months[k]
		if !ok {
			mt = &MonthTotal{
				Year:    k.year,
				Month:   k.month,
				Label:   MonthLabel(tr, k.year, k.month),
				Income:  decimal.Zero,
				Expense: decimal.Zero,
			}
			months[k] = mt
		}
		switch tx.Kind {
		case KindIncome:
			mt.Income = mt.Income.Add(tx.Amount)
		case KindExpense:
			mt.Expense = mt.Expense.Add(tx.Amount)
		}
	}

	out := make([]MonthTotal, 0, len(months))
	for _, mt := range months {
		mt.Balance = mt.Income.Sub(mt.Expense)
		out = append(out, *mt)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// MonthLabel renders "MMM/yy" with the abbreviated month name of tr, capitalized and without trailing dot.
func MonthLabel(tr locales.Translator, year int, month time.Month) string {
	abbr := strings.TrimSuffix(tr.MonthAbbreviated(month), ".")
	if r, size := utf8.DecodeRuneInString(abbr); size > 0 {
		abbr = string(unicode.ToUpper(r)) + abbr[size:]
	}
	yy := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("06")
	return abbr + "/" + yy
}

// Summarize totals incomes and expenses, split by payment status.
func Summarize(txs []Transaction) Summary {
	s := Summary{
		Income:         decimal.Zero,
		Expense:        decimal.Zero,
		IncomePaid:     decimal.Zero,
		IncomePending:  decimal.Zero,
		ExpensePaid:    decimal.Zero,
		ExpensePending: decimal.Zero,
	}
	for _, tx := range txs {
		switch tx.Kind {
		case KindIncome:
			s.Income = s.Income.Add(tx.Amount)
			if tx.IsPaid {
				s.IncomePaid = s.IncomePaid.Add(tx.Amount)
			} else {
				s.IncomePending = s.IncomePending.Add(tx.Amount)
			}
		case KindExpense:
			s.Expense = s.Expense.Add(tx.Amount)
			if tx.IsPaid {
				s.ExpensePaid = s.ExpensePaid.Add(tx.Amount)
			} else {
				s.ExpensePending = s.ExpensePending.Add(tx.Amount)
			}
		}
	}
	s.Balance = s.Income.Sub(s.Expense)
	return s
}

// ToCents converts amount to integer cents, rounding half away from zero.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
