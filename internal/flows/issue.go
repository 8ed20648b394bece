package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goGuard/binding"
)

// IssueFailureKind classifies anonymous issuance failures.
type IssueFailureKind int

const (
	IssueFailureNone IssueFailureKind = iota
	IssueFailureRandom
	IssueFailureStore
)

// IssueResult carries the client-visible token and the commitment for the
// cookie. Both are empty unless Failure is IssueFailureNone.
type IssueResult struct {
	Failure    IssueFailureKind
	Err        error
	Token      string
	Commitment string
}

// IssueDeps captures anonymous issuance dependencies.
type IssueDeps struct {
	NewKey   func() (string, error)
	NewToken func() (string, error)
	Commit   func(key, token string) string
	Store    binding.Store
	TTL      time.Duration
}

// RunIssue generates a (key, token) pair, stores key under token and returns
// token with its commitment. The store write happens only after both halves
// exist; a failed write yields no token.
func RunIssue(ctx context.Context, deps IssueDeps) IssueResult {
	key, err := deps.NewKey()
	if err != nil {
		return IssueResult{Failure: IssueFailureRandom, Err: err}
	}
	token, err := deps.NewToken()
	if err != nil {
		return IssueResult{Failure: IssueFailureRandom, Err: err}
	}

	if err := deps.Store.Set(ctx, token, key, deps.TTL); err != nil {
		return IssueResult{Failure: IssueFailureStore, Err: err}
	}

	return IssueResult{
		Token:      token,
		Commitment: deps.Commit(key, token),
	}
}
