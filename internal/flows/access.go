package flows

import (
	"errors"

	"github.com/MrEthical07/goGuard/jwt"
)

type AccessFailureKind int

const (
	AccessFailureNone AccessFailureKind = iota
	AccessFailureMissing
	AccessFailureExpired
	AccessFailureInvalid
)

type AccessResult struct {
	Failure AccessFailureKind
	Err     error
	Claims  *jwt.Claims
}

type AccessDeps struct {
	VerifyAccess func(token, bindingSecret string) (*jwt.Claims, error)
}

// RunVerifyAccess verifies a bearer access token under the key derived from
// csrfToken. Neither outcome touches the binding store.
func RunVerifyAccess(bearer, csrfToken string, deps AccessDeps) AccessResult {
	if bearer == "" || csrfToken == "" {
		return AccessResult{Failure: AccessFailureMissing}
	}

	claims, err := deps.VerifyAccess(bearer, csrfToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return AccessResult{Failure: AccessFailureExpired, Err: err}
		}
		return AccessResult{Failure: AccessFailureInvalid, Err: err}
	}
	return AccessResult{Claims: claims}
}
