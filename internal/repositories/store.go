package repositories

import "database/sql"

// Store bundles the MySQL repositories behind a single value so it can be
// handed to every service.
type Store struct {
	UserRepository
	RouteRepository
	BookingRepository
	TransactionRepository
	DiscrepancyRepository
}

func NewStore(db *sql.DB) Store {
	return Store{
		UserRepository:        UserRepository{DB: db},
		RouteRepository:       RouteRepository{DB: db},
		BookingRepository:     BookingRepository{DB: db},
		TransactionRepository: TransactionRepository{DB: db},
		DiscrepancyRepository: DiscrepancyRepository{DB: db},
	}
}
