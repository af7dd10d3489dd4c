package vault

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Policy decides whether caller may mutate the vault's config and registry.
type Policy interface {
	IsAuthorized(caller common.Address, cfg Config) bool
}

// PolicyFunc adapts a plain function to Policy.
type PolicyFunc func(caller common.Address, cfg Config) bool

// IsAuthorized calls f.
func (f PolicyFunc) IsAuthorized(caller common.Address, cfg Config) bool {
	return f(caller, cfg)
}

// AdminOnly authorizes exactly the configured admin.
var AdminOnly Policy = PolicyFunc(func(caller common.Address, cfg Config) bool {
	return caller == cfg.Admin
})

// AnyOf authorizes any of a fixed list of operators, regardless of the configured admin.
func AnyOf(operators ...common.Address) Policy {
	set := make(map[common.Address]struct{}, len(operators))
	for _, op := range operators {
		set[op] = struct{}{}
	}
	return PolicyFunc(func(caller common.Address, _ Config) bool {
		_, ok := set[caller]
		return ok
	})
}

// RequireAuthorized fails with ErrUnauthorized unless policy admits caller.
func RequireAuthorized(policy Policy, caller common.Address, cfg Config) error {
	if !policy.IsAuthorized(caller, cfg) {
		return fmt.Errorf("%w: %s may not modify the vault", ErrUnauthorized, caller.Hex())
	}
	return nil
}

// RequireAdmin fails with ErrUnauthorized unless caller is the configured admin.
func RequireAdmin(caller common.Address, cfg Config) error {
	return RequireAuthorized(AdminOnly, caller, cfg)
}
