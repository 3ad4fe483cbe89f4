package storage

import (
	"context"

	"github.com/PersyLopez/sitesprintz-sub001/libs/db"
	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/model"
)

// AccountRepository reads owning accounts. The table is owned by the account service; booking
// only reads it.
type AccountRepository struct {
	pool *db.Pool
}

func NewAccountRepository(pool *db.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) GetOwnerByID(ctx context.Context, id string) (model.Owner, error) {
	var o model.Owner
	err := r.pool.QueryRow(ctx, `
		SELECT id, email
		FROM accounts
		WHERE id = $1
	`, id).Scan(&o.ID, &o.Email)
	if err != nil {
		return model.Owner{}, translate(err)
	}
	return o, nil
}
