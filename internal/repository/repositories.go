package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	// Core repositories (pgxpool)
	UserRepo         UserRepository
	ProjectRepo      ProjectRepository
	ApplicationRepo  ApplicationRepository
	EscrowRepo       EscrowRepository
	NotificationRepo NotificationRepository

	// Interview/dispute repositories (sqlx)
	InterviewRepo InterviewRepository
	DisputeRepo   DisputeRepository
}

func NewRepositories(pool *pgxpool.Pool, db *sqlx.DB) *Repositories {
	return &Repositories{
		// pgxpool repos
		UserRepo:         NewUserRepository(pool),
		ProjectRepo:      NewProjectRepository(pool),
		ApplicationRepo:  NewApplicationRepository(pool),
		EscrowRepo:       NewEscrowRepository(pool),
		NotificationRepo: NewNotificationRepository(pool),

		// sqlx repos
		InterviewRepo: NewInterviewRepository(db),
		DisputeRepo:   NewDisputeRepository(db),
	}
}
