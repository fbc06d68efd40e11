package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/learnspace/learnspace/clients/backend"
	"github.com/learnspace/learnspace/core"
	"github.com/learnspace/learnspace/core/access"
	"github.com/learnspace/learnspace/core/identity"
	"github.com/learnspace/learnspace/core/session"
)

var (
	// ErrPendingApproval is a terminal rejection for an otherwise valid
	// login whose account has not been approved by an admin yet.
	ErrPendingApproval = errors.New("your account is not approved yet, please wait for admin approval")

	// ErrSuperseded marks a login response that resolved after a newer
	// attempt was issued; its identity is discarded, never persisted.
	ErrSuperseded = errors.New("sign-in attempt superseded by a newer one")

	// ErrRequestFailed is the generic retry-able transport failure; the
	// cause is logged, the user must resubmit.
	ErrRequestFailed = errors.New("something went wrong, please try again")
)

type (
	// API is the slice of the backend client the auth flows consume.
	API interface {
		Login(ctx context.Context, creds identity.Credentials) (identity.Identity, error)
		Register(ctx context.Context, reg identity.Registration) error
	}

	// Service drives the sign-in/sign-up/sign-out flows against the
	// backend and the session store.
	Service struct {
		api    API
		store  *session.Store
		logger core.Logger

		mu       sync.Mutex
		seq      uint64 // monotonic sign-in attempt counter
		inFlight int32
	}
)

func NewService(api API, store *session.Store, logger core.Logger) *Service {
	return &Service{api: api, store: store, logger: logger}
}

// Busy reports whether an authentication request is in flight. The UI uses
// it to disable resubmission of the same form while a request is pending.
func (svc *Service) Busy() bool {
	return atomic.LoadInt32(&svc.inFlight) > 0
}

// SignIn authenticates creds against the backend. On success the identity
// is persisted to the session store (which notifies observers) and the
// role's landing path is returned.
//
// The session store is never written on failure: bad credentials and
// non-approved accounts both leave any existing session untouched. When
// two attempts race, only the most recently issued one may persist; a
// stale response resolves to ErrSuperseded.
func (svc *Service) SignIn(ctx context.Context, creds identity.Credentials) (identity.Identity, string, error) {
	if err := creds.Validate(); err != nil {
		return identity.Identity{}, "", err
	}

	atomic.AddInt32(&svc.inFlight, 1)
	defer atomic.AddInt32(&svc.inFlight, -1)

	seq := atomic.AddUint64(&svc.seq, 1)

	usr, err := svc.api.Login(ctx, creds)
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			// authentication rejection; the backend message is the user-facing one
			return identity.Identity{}, "", err
		}
		svc.logger.Error("login request failed", err)
		return identity.Identity{}, "", ErrRequestFailed
	}

	if !usr.Approved() {
		return identity.Identity{}, "", ErrPendingApproval
	}

	if err := svc.persist(seq, usr); err != nil {
		return identity.Identity{}, "", err
	}
	return usr, LandingPath(usr.Role), nil
}

// persist writes usr to the session store unless the attempt has been
// superseded by a newer one in the meantime.
func (svc *Service) persist(seq uint64, usr identity.Identity) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if seq != atomic.LoadUint64(&svc.seq) {
		return ErrSuperseded
	}
	return svc.store.Write(usr)
}

// SignUp registers a new (pending) account. It never touches the session
// store: the account must be approved and signed in explicitly.
func (svc *Service) SignUp(ctx context.Context, reg identity.Registration) error {
	if err := reg.Validate(); err != nil {
		return err
	}

	atomic.AddInt32(&svc.inFlight, 1)
	defer atomic.AddInt32(&svc.inFlight, -1)

	if err := svc.api.Register(ctx, reg); err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			if apiErr.StatusCode == http.StatusConflict {
				// account already exists; surface it on the email field
				return core.NewValidationError(err, core.FieldError{Field: "email", Error: apiErr.Message})
			}
			return err
		}
		svc.logger.Error("register request failed", err)
		return ErrRequestFailed
	}
	return nil
}

// SignOut clears the session (notifying observers) and returns the
// sign-in path to land on.
func (svc *Service) SignOut() (string, error) {
	if err := svc.store.Clear(); err != nil {
		return "", err
	}
	return access.PathSignIn, nil
}

// LandingPath is the post-sign-in destination for a role.
func LandingPath(role identity.Role) string {
	switch role {
	case identity.RoleFaculty:
		return access.PathFacultyDashboard
	case identity.RoleStudent:
		return access.PathStudentDashboard
	case identity.RoleAdmin:
		return access.PathAdminDashboard
	default:
		return access.PathHome
	}
}
