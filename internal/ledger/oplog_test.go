package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/iho/networth/internal/domain"
)

func opByKind(t *testing.T, ops []domain.Operation, kind domain.OpKind) domain.Operation {
	t.Helper()
	for _, op := range ops {
		if op.Kind == kind {
			return op
		}
	}
	t.Fatalf("no %s entry in %d ops", kind, len(ops))
	return domain.Operation{}
}

func TestDeleteOperation_WithoutRollback(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	acc, _ := l.Add(ctx, domain.TypeCash, "Cash")
	l.SetBalance(ctx, acc.ID, cents(10000))

	ops, _ := l.Operations(ctx)
	outcomes, err := l.DeleteOperation(ctx, ops[0].ID, false)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(outcomes) != 0 {
		t.Errorf("outcomes = %+v, want none without rollback", outcomes)
	}

	// Entry gone, balance untouched.
	if remaining, _ := l.Operations(ctx); len(remaining) != 0 {
		t.Errorf("log has %d entries, want 0", len(remaining))
	}
	got, _ := l.Get(ctx, acc.ID)
	if got.Balance.Cents() != 10000 {
		t.Errorf("balance = %s, want 100.00", got.Balance)
	}
}

func TestDeleteOperation_RollbackAdjust(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	acc, _ := l.Add(ctx, domain.TypeCash, "Cash")
	l.SetBalance(ctx, acc.ID, cents(10000))
	l.Adjust(ctx, acc.ID, cents(2500))

	ops, _ := l.Operations(ctx)
	adjust := opByKind(t, ops, domain.OpAdjust)

	outcomes, err := l.DeleteOperation(ctx, adjust.ID, true)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(outcomes) != 1 || !outcomes[0].Applied {
		t.Fatalf("outcomes = %+v, want one applied", outcomes)
	}

	got, _ := l.Get(ctx, acc.ID)
	if got.Balance.Cents() != 10000 {
		t.Errorf("balance = %s, want 100.00 after rollback", got.Balance)
	}
}

func TestDeleteOperation_RollbackBlockedByLaterSetBalance(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	acc, _ := l.Add(ctx, domain.TypeCash, "Cash")
	l.Adjust(ctx, acc.ID, cents(2500))
	l.SetBalance(ctx, acc.ID, cents(99900))

	ops, _ := l.Operations(ctx)
	adjust := opByKind(t, ops, domain.OpAdjust)

	// The later absolute re-baseline makes reverting the adjust meaningless:
	// the entry is deleted but the balance stays.
	outcomes, err := l.DeleteOperation(ctx, adjust.ID, true)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Applied {
		t.Fatalf("outcomes = %+v, want one not applied", outcomes)
	}

	got, _ := l.Get(ctx, acc.ID)
	if got.Balance.Cents() != 99900 {
		t.Errorf("balance = %s, want 999.00", got.Balance)
	}

	remaining, _ := l.Operations(ctx)
	if len(remaining) != 1 || remaining[0].Kind != domain.OpSetBalance {
		t.Errorf("remaining ops = %+v", remaining)
	}
}

func TestDeleteOperation_RollbackSetBalanceAfterAdjust(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	acc, _ := l.Add(ctx, domain.TypeCash, "Cash")
	l.SetBalance(ctx, acc.ID, cents(10000))
	l.Adjust(ctx, acc.ID, cents(500))

	ops, _ := l.Operations(ctx)
	setOp := opByKind(t, ops, domain.OpSetBalance)

	// No set_balance is newer than the target, so the rollback applies and
	// subtracts the set_balance delta while preserving the later adjust.
	outcomes, err := l.DeleteOperation(ctx, setOp.ID, true)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(outcomes) != 1 || !outcomes[0].Applied {
		t.Fatalf("outcomes = %+v, want one applied", outcomes)
	}

	got, _ := l.Get(ctx, acc.ID)
	if got.Balance.Cents() != 500 {
		t.Errorf("balance = %s, want 5.00 (adjust preserved)", got.Balance)
	}
}

func TestDeleteOperation_RollbackTransferBothSides(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	cash, _ := l.Add(ctx, domain.TypeCash, "Cash")
	card, _ := l.Add(ctx, domain.TypeCreditCard, "Card")
	l.SetBalance(ctx, cash.ID, cents(50000))
	l.SetBalance(ctx, card.ID, cents(20000))
	l.Transfer(ctx, cash.ID, card.ID, cents(10000))

	ops, _ := l.Operations(ctx)
	transfer := opByKind(t, ops, domain.OpTransfer)

	outcomes, err := l.DeleteOperation(ctx, transfer.ID, true)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %+v, want two sides", outcomes)
	}
	for _, o := range outcomes {
		if !o.Applied {
			t.Errorf("side %s not applied", o.AccountID)
		}
	}

	gotCash, _ := l.Get(ctx, cash.ID)
	gotCard, _ := l.Get(ctx, card.ID)
	if gotCash.Balance.Cents() != 50000 {
		t.Errorf("cash = %s, want 500.00", gotCash.Balance)
	}
	if gotCard.Balance.Cents() != 20000 {
		t.Errorf("card = %s, want 200.00", gotCard.Balance)
	}
}

func TestDeleteOperation_RollbackTransferPerSideRule(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	a, _ := l.Add(ctx, domain.TypeCash, "A")
	b, _ := l.Add(ctx, domain.TypeDeposit, "B")
	l.SetBalance(ctx, a.ID, cents(10000))
	l.Transfer(ctx, a.ID, b.ID, cents(4000))
	// Re-baseline only the receiving side after the transfer.
	l.SetBalance(ctx, b.ID, cents(7777))

	ops, _ := l.Operations(ctx)
	transfer := opByKind(t, ops, domain.OpTransfer)

	outcomes, err := l.DeleteOperation(ctx, transfer.ID, true)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}

	byAccount := map[string]bool{}
	for _, o := range outcomes {
		byAccount[o.AccountID] = o.Applied
	}
	if !byAccount[a.ID] {
		t.Error("sender side should roll back")
	}
	if byAccount[b.ID] {
		t.Error("receiver side must not roll back past its re-baseline")
	}

	gotA, _ := l.Get(ctx, a.ID)
	gotB, _ := l.Get(ctx, b.ID)
	if gotA.Balance.Cents() != 10000 {
		t.Errorf("sender = %s, want 100.00", gotA.Balance)
	}
	if gotB.Balance.Cents() != 7777 {
		t.Errorf("receiver = %s, want 77.77", gotB.Balance)
	}
}

func TestDeleteOperation_RenameNeverRollsBack(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	acc, _ := l.Add(ctx, domain.TypeCash, "Cash")
	l.SetBalance(ctx, acc.ID, cents(500))
	l.Rename(ctx, acc.ID, "Renamed")

	ops, _ := l.Operations(ctx)
	rename := opByKind(t, ops, domain.OpRename)

	outcomes, err := l.DeleteOperation(ctx, rename.ID, true)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(outcomes) != 0 {
		t.Errorf("outcomes = %+v, want none for rename", outcomes)
	}

	got, _ := l.Get(ctx, acc.ID)
	if got.Name != "Renamed" {
		t.Errorf("name = %q, deleting the log entry must not revert it", got.Name)
	}
}

func TestDeleteOperation_DeletedAccount(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	acc, _ := l.Add(ctx, domain.TypeCash, "Cash")
	l.SetBalance(ctx, acc.ID, cents(500))
	l.Delete(ctx, acc.ID)

	ops, _ := l.Operations(ctx)
	outcomes, err := l.DeleteOperation(ctx, ops[0].ID, true)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Applied {
		t.Errorf("outcomes = %+v, want one not applied for missing account", outcomes)
	}
}

func TestDeleteOperation_NotFound(t *testing.T) {
	l := newTestLedger(t)
	if _, err := l.DeleteOperation(context.Background(), "nope", true); !errors.Is(err, domain.ErrOperationNotFound) {
		t.Errorf("error = %v, want ErrOperationNotFound", err)
	}
}

func TestOperationsForAccount(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	a, _ := l.Add(ctx, domain.TypeCash, "A")
	b, _ := l.Add(ctx, domain.TypeCash, "B")
	l.SetBalance(ctx, a.ID, cents(100))
	l.SetBalance(ctx, b.ID, cents(200))
	l.Transfer(ctx, a.ID, b.ID, cents(50))
	l.Rename(ctx, b.ID, "B2")

	opsA, _ := l.OperationsForAccount(ctx, a.ID)
	if len(opsA) != 2 {
		t.Errorf("ops for A = %d, want 2 (set_balance + transfer)", len(opsA))
	}
	opsB, _ := l.OperationsForAccount(ctx, b.ID)
	if len(opsB) != 3 {
		t.Errorf("ops for B = %d, want 3 (set_balance + transfer + rename)", len(opsB))
	}
}
