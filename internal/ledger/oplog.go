package ledger

import (
	"context"
	"fmt"

	"github.com/iho/networth/internal/domain"
	"github.com/iho/networth/internal/money"
)

// RollbackOutcome reports, per affected account, whether deleting an
// operation actually restored the balance. Applied=false means "record
// removed, balance unchanged" and must be surfaced to the caller rather
// than silently losing accuracy.
type RollbackOutcome struct {
	AccountID string
	Applied   bool
}

// Operations returns the log ordered by timestamp.
func (l *Ledger) Operations(ctx context.Context) ([]domain.Operation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ops, err := l.loadOperations(ctx)
	if err != nil {
		return nil, err
	}
	return sortedByAt(ops), nil
}

// OperationsForAccount returns the log entries touching or naming the given
// account, ordered by timestamp. Entries for deleted accounts remain
// listable here.
func (l *Ledger) OperationsForAccount(ctx context.Context, accountID string) ([]domain.Operation, error) {
	ops, err := l.Operations(ctx)
	if err != nil {
		return nil, err
	}

	var out []domain.Operation
	for _, op := range ops {
		if op.AccountID == accountID || op.Touches(accountID) {
			out = append(out, op)
		}
	}
	return out, nil
}

// DeleteOperation removes a log entry, optionally rolling back its balance
// effect. Rollback is conditional: it is applied only when no set_balance
// entry for the same account carries a timestamp strictly after the target
// entry, because such a later re-baseline makes reverting the older entry
// meaningless. When rollback is unsafe the entry is still deleted and the
// returned outcome reports Applied=false for that account.
//
// Transfers evaluate the rule independently for each side; renames never
// have a balance effect.
func (l *Ledger) DeleteOperation(ctx context.Context, id string, rollback bool) ([]RollbackOutcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ops, err := l.loadOperations(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range ops {
		if ops[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrOperationNotFound, id)
	}
	target := ops[idx]

	var outcomes []RollbackOutcome
	accounts, err := l.loadAccounts(ctx)
	if err != nil {
		return nil, err
	}
	mutated := false

	if rollback && target.Kind != domain.OpRename {
		for _, side := range rollbackSides(target) {
			outcome := RollbackOutcome{AccountID: side.accountID}

			if rollbackSafe(ops, target, side.accountID) {
				if i := indexOf(accounts, side.accountID); i >= 0 {
					accounts[i].Balance = accounts[i].Balance.Sub(side.delta)
					accounts[i].UpdatedAt = l.now()
					outcome.Applied = true
					mutated = true
				}
			}
			outcomes = append(outcomes, outcome)
		}
	}

	ops = append(ops[:idx], ops[idx+1:]...)

	if mutated {
		if err := l.saveAccounts(ctx, accounts); err != nil {
			return nil, err
		}
	}
	if err := l.saveOperations(ctx, ops); err != nil {
		return nil, err
	}
	if mutated {
		l.refreshSnapshot(ctx, accounts)
	}

	l.log.Debug().Str("op_id", id).Bool("rollback", rollback).Msg("operation deleted")
	return outcomes, nil
}

type rollbackSide struct {
	accountID string
	delta     money.Money
}

// rollbackSides lists the accounts a rollback would touch, with the stored
// delta the entry originally applied to each. Rolling back subtracts that
// delta rather than restoring the recorded before value, so later
// independent adjusts on the same account survive the rollback.
func rollbackSides(op domain.Operation) []rollbackSide {
	switch op.Kind {
	case domain.OpSetBalance:
		return []rollbackSide{{accountID: op.AccountID, delta: op.After.Sub(op.Before)}}
	case domain.OpAdjust:
		return []rollbackSide{{accountID: op.AccountID, delta: op.After.Sub(op.Before)}}
	case domain.OpTransfer:
		return []rollbackSide{
			{accountID: op.FromID, delta: op.FromAfter.Sub(op.FromBefore)},
			{accountID: op.ToID, delta: op.ToAfter.Sub(op.ToBefore)},
		}
	default:
		return nil
	}
}

// rollbackSafe reports whether rolling back target for accountID cannot
// corrupt a later absolute re-baseline: it is safe unless some set_balance
// entry for the account is strictly newer than the target.
func rollbackSafe(ops []domain.Operation, target domain.Operation, accountID string) bool {
	for _, op := range ops {
		if op.Kind != domain.OpSetBalance || op.AccountID != accountID {
			continue
		}
		if op.At.After(target.At) {
			return false
		}
	}
	return true
}
