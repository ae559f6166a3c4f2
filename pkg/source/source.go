// Package source defines the capability the checker uses to look up known
// advisories for the packages of a lock file.
package source

import (
	"context"

	"github.com/openvex/lockaudit/pkg/advisory"
)

// Source maps a lock file to the packages that have known advisories.
//
// count is the number of vulnerable packages in result.
type Source interface {
	Check(ctx context.Context, lockFile string) (count int, result advisory.Result, err error)
}

// Func adapts a function to the Source interface.
type Func func(ctx context.Context, lockFile string) (int, advisory.Result, error)

func (f Func) Check(ctx context.Context, lockFile string) (int, advisory.Result, error) {
	return f(ctx, lockFile)
}
