/*
Package settlement turns a worksheet into "who pays whom".

PURPOSE:
  The worksheet engine answers "what is each participant's share of each
  entry". Settlement aggregates those shares across entries using each
  entry's payer and produces a short list of transfers that squares
  everyone up.

PIPELINE:
  1. DebtMatrix: m[debtor][payer] += share for every entry with a payer.
     A payer's own share is not a debt.
  2. CancelBidirectional: for each pair keep only the net flow
     (a owes b 30, b owes a 10 -> a owes b 20).
  3. SettleGreedy: per-participant net position, then repeatedly match the
     largest debtor with the largest creditor.

  Simplify runs steps 2 and 3 and keeps every stage in a Plan so adapters
  can show the intermediate matrices.

ROUNDING:
  Matrix cells keep full decimal precision. Net positions are rounded to
  cents before matching, so transfers are whole cents.

ENTRIES WITHOUT PAYER:
  Skipped entirely. Nobody can owe money for an expense nobody paid.
*/
package settlement

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/splitsheet/worksheet"
)

// =============================================================================
// BALANCES
// =============================================================================

// Balance is one participant's position across the worksheet.
// Net > 0 means the participant is owed money.
type Balance struct {
	ParticipantID worksheet.ParticipantID
	Name          string
	TotalPaid     decimal.Decimal
	TotalOwed     decimal.Decimal
	Net           decimal.Decimal
}

// Balances returns every participant's paid, owed and net totals in column
// order. The payer is credited with what the entry allocates, not its raw
// amount, so unallocated money never shows up as owed to anyone and the
// nets always sum to zero.
func Balances(doc *worksheet.Document) []Balance {
	reg := doc.Registry()
	index := make(map[worksheet.ParticipantID]int, reg.Len())
	out := make([]Balance, 0, reg.Len())
	for i, p := range reg.Participants() {
		index[p.ID] = i
		out = append(out, Balance{
			ParticipantID: p.ID,
			Name:          p.Name,
			TotalPaid:     decimal.Zero,
			TotalOwed:     decimal.Zero,
		})
	}

	for _, e := range doc.Entries() {
		payer, ok := index[e.PaidBy]
		if !ok {
			continue
		}
		res, ok := doc.Result(e.ID)
		if !ok {
			continue
		}
		out[payer].TotalPaid = out[payer].TotalPaid.Add(res.Allocated())
		for id, share := range res.Shares {
			if i, ok := index[id]; ok {
				out[i].TotalOwed = out[i].TotalOwed.Add(share)
			}
		}
	}

	for i := range out {
		out[i].Net = out[i].TotalPaid.Sub(out[i].TotalOwed)
	}
	return out
}

// =============================================================================
// DEBT MATRIX
// =============================================================================

// Matrix holds pairwise debts. Cells[i][j] is what IDs[i] owes IDs[j].
type Matrix struct {
	IDs   []worksheet.ParticipantID
	Cells [][]decimal.Decimal
}

func newMatrix(ids []worksheet.ParticipantID) Matrix {
	cells := make([][]decimal.Decimal, len(ids))
	for i := range cells {
		cells[i] = make([]decimal.Decimal, len(ids))
		for j := range cells[i] {
			cells[i][j] = decimal.Zero
		}
	}
	return Matrix{IDs: ids, Cells: cells}
}

// DebtMatrix builds the debtor x payer matrix from every entry's shares.
func DebtMatrix(doc *worksheet.Document) Matrix {
	m := newMatrix(doc.Registry().IDs())
	index := m.index()

	for _, e := range doc.Entries() {
		payer, ok := index[e.PaidBy]
		if !ok {
			continue
		}
		res, ok := doc.Result(e.ID)
		if !ok {
			continue
		}
		for id, share := range res.Shares {
			debtor, ok := index[id]
			if !ok || debtor == payer {
				continue
			}
			m.Cells[debtor][payer] = m.Cells[debtor][payer].Add(share)
		}
	}
	return m
}

// Owes returns what from owes to, or zero for unknown ids.
func (m Matrix) Owes(from, to worksheet.ParticipantID) decimal.Decimal {
	index := m.index()
	i, ok1 := index[from]
	j, ok2 := index[to]
	if !ok1 || !ok2 {
		return decimal.Zero
	}
	return m.Cells[i][j]
}

// Net returns each participant's incoming minus outgoing debt, in column
// order.
func (m Matrix) Net() []decimal.Decimal {
	net := make([]decimal.Decimal, len(m.IDs))
	for i := range net {
		net[i] = decimal.Zero
	}
	for i := range m.Cells {
		for j, v := range m.Cells[i] {
			net[i] = net[i].Sub(v)
			net[j] = net[j].Add(v)
		}
	}
	return net
}

func (m Matrix) index() map[worksheet.ParticipantID]int {
	index := make(map[worksheet.ParticipantID]int, len(m.IDs))
	for i, id := range m.IDs {
		index[id] = i
	}
	return index
}

func (m Matrix) clone() Matrix {
	c := newMatrix(append([]worksheet.ParticipantID(nil), m.IDs...))
	for i := range m.Cells {
		copy(c.Cells[i], m.Cells[i])
	}
	return c
}

// CancelBidirectional returns a copy of m where every pair owes in at most
// one direction. The diagonal is cleared.
func CancelBidirectional(m Matrix) Matrix {
	c := m.clone()
	for i := range c.Cells {
		c.Cells[i][i] = decimal.Zero
		for j := i + 1; j < len(c.Cells); j++ {
			diff := c.Cells[i][j].Sub(c.Cells[j][i])
			switch {
			case diff.IsPositive():
				c.Cells[i][j], c.Cells[j][i] = diff, decimal.Zero
			case diff.IsNegative():
				c.Cells[i][j], c.Cells[j][i] = decimal.Zero, diff.Neg()
			default:
				c.Cells[i][j], c.Cells[j][i] = decimal.Zero, decimal.Zero
			}
		}
	}
	return c
}

// =============================================================================
// GREEDY SETTLEMENT
// =============================================================================

// Transfer is one payment that settles (part of) a debt.
type Transfer struct {
	From   worksheet.ParticipantID
	To     worksheet.ParticipantID
	Amount decimal.Decimal
}

type position struct {
	id     worksheet.ParticipantID
	amount decimal.Decimal
}

// SettleGreedy produces transfers that zero every net position, matching
// the largest debtor with the largest creditor until nothing is left.
// Ties keep column order.
func SettleGreedy(m Matrix) []Transfer {
	var creditors, debtors []position
	for i, n := range m.Net() {
		n = worksheet.Round(n)
		switch {
		case n.IsPositive():
			creditors = append(creditors, position{m.IDs[i], n})
		case n.IsNegative():
			debtors = append(debtors, position{m.IDs[i], n.Neg()})
		}
	}
	sort.SliceStable(creditors, func(a, b int) bool { return creditors[a].amount.GreaterThan(creditors[b].amount) })
	sort.SliceStable(debtors, func(a, b int) bool { return debtors[a].amount.GreaterThan(debtors[b].amount) })

	var out []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := decimal.Min(debtors[i].amount, creditors[j].amount)
		if amount.IsPositive() {
			out = append(out, Transfer{From: debtors[i].id, To: creditors[j].id, Amount: amount})
		}
		debtors[i].amount = debtors[i].amount.Sub(amount)
		creditors[j].amount = creditors[j].amount.Sub(amount)
		if !debtors[i].amount.IsPositive() {
			i++
		}
		if !creditors[j].amount.IsPositive() {
			j++
		}
	}
	return out
}

// =============================================================================
// PLAN
// =============================================================================

// Plan keeps every stage of the settlement pipeline.
type Plan struct {
	Original  Matrix
	Netted    Matrix
	Transfers []Transfer
}

// Simplify runs the pipeline on m.
func Simplify(m Matrix) Plan {
	netted := CancelBidirectional(m)
	return Plan{
		Original:  m,
		Netted:    netted,
		Transfers: SettleGreedy(netted),
	}
}

// Settle builds the debt matrix for doc and simplifies it.
func Settle(doc *worksheet.Document) Plan {
	return Simplify(DebtMatrix(doc))
}
