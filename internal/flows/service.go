package flows

import "context"

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Issue.Store != nil && s.deps.Session.Sign != nil
}

func (s Service) Issue(ctx context.Context) IssueResult {
	return RunIssue(ctx, s.deps.Issue)
}

func (s Service) VerifyAnonymous(ctx context.Context, commitment, headerToken string) VerifyResult {
	return RunVerifyAnonymous(ctx, commitment, headerToken, s.deps.Verify)
}

func (s Service) VerifyAuthorized(ctx context.Context, commitment, headerToken, refreshToken string) VerifyResult {
	return RunVerifyAuthorized(ctx, commitment, headerToken, refreshToken, s.deps.Verify)
}

func (s Service) Establish(ctx context.Context, in EstablishInput) SessionResult {
	return RunEstablish(ctx, in, s.deps.Session)
}

func (s Service) Refresh(ctx context.Context, in RefreshInput) SessionResult {
	return RunRefresh(ctx, in, s.deps.Session)
}

func (s Service) Revoke(ctx context.Context, refreshToken string) SessionResult {
	return RunRevoke(ctx, refreshToken, s.deps.Session)
}

func (s Service) VerifyAccess(bearer, csrfToken string) AccessResult {
	return RunVerifyAccess(bearer, csrfToken, s.deps.Access)
}

func (s Service) Register(ctx context.Context, req RegisterRequest) AccountResult {
	return RunRegister(ctx, req, s.deps.Account)
}

func (s Service) Login(ctx context.Context, email, password string) AccountResult {
	return RunLogin(ctx, email, password, s.deps.Account)
}
