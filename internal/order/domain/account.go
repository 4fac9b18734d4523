package domain

import "context"

// AccountLookup 账户存在性查询
type AccountLookup interface {
	AccountExists(ctx context.Context, accountID string) (bool, error)
}
