package handlers

import (
	"context"
	"net/http"

	"wastebin-backend/internal/identity"
	"wastebin-backend/internal/middleware"
	"wastebin-backend/internal/models"
	"wastebin-backend/internal/services"
)

// The interfaces below are the parts of the table store each handler group
// uses. *database.Store satisfies all of them.

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SearchUsers(ctx context.Context, pattern string) ([]models.User, error)
	DeleteUser(ctx context.Context, id string, beforeCommit func(context.Context) error) error
}

type BinStore interface {
	GetBin(ctx context.Context, binID string) (*models.Bin, error)
	ListBins(ctx context.Context) ([]models.Bin, error)
	ListBinsAssignedTo(ctx context.Context, userID string) ([]models.Bin, error)
	CreateBin(ctx context.Context, b *models.Bin) error
	UpdateBinDetails(ctx context.Context, binID string, location, qrURL *string) (*models.Bin, error)
	DeleteBin(ctx context.Context, binID string) error
	UpdateWasteLevel(ctx context.Context, binID string, level int, now int64) (int, error)
	AssignBin(ctx context.Context, binID string, userID *string) (*models.Bin, error)
}

type ScheduleStore interface {
	GetBin(ctx context.Context, binID string) (*models.Bin, error)
	CreateSchedule(ctx context.Context, ps *models.PickupSchedule) error
	GetSchedule(ctx context.Context, id string) (*models.PickupSchedule, error)
	ListSchedules(ctx context.Context) ([]models.PickupSchedule, error)
	ListSchedulesForBin(ctx context.Context, binID string) ([]models.PickupSchedule, error)
	ListSchedulesForOwner(ctx context.Context, userID string) ([]models.PickupSchedule, error)
	SetScheduleStatus(ctx context.Context, id, status string, now int64) (*models.PickupSchedule, error)
	CompleteSchedule(ctx context.Context, id string, now int64) (*models.PickupSchedule, error)
}

type TransactionStore interface {
	GetBin(ctx context.Context, binID string) (*models.Bin, error)
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	ListTransactionsForOwner(ctx context.Context, userID string) ([]models.Transaction, error)
	ListTransactionsForBin(ctx context.Context, binID string) ([]models.Transaction, error)
	SetTransactionStatus(ctx context.Context, id, status string, now int64) (*models.Transaction, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Registerer creates accounts. Implemented by *services.Registrar.
type Registerer interface {
	Validate(in services.RegisterInput) error
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Provision(ctx context.Context, in services.RegisterInput) (*models.User, error)
}

// PrincipalResolver authenticates a request without rejecting it.
// Implemented by *middleware.Guard.
type PrincipalResolver interface {
	Resolve(r *http.Request) (middleware.Principal, error)
}

type SignInner interface {
	SignIn(ctx context.Context, email, password string) (*identity.Session, error)
	ResetPassword(ctx context.Context, email string) error
}

type HealthChecker interface {
	Health(ctx context.Context) error
}
