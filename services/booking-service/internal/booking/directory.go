package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PersyLopez/sitesprintz-sub001/services/booking-service/internal/model"
)

const (
	defaultBusinessName = "My Business"
	defaultTimezone     = "UTC"
	defaultCurrency     = "USD"
)

// Directory maps owning accounts to booking tenants.
type Directory struct {
	store    Store
	accounts AccountDirectory
}

func NewDirectory(store Store, accounts AccountDirectory) *Directory {
	return &Directory{store: store, accounts: accounts}
}

// GetOrCreateTenant returns the owner's tenant, creating it on first use. Concurrent first calls
// for one owner converge on a single row.
func (d *Directory) GetOrCreateTenant(ctx context.Context, ownerID, siteRef string) (*model.Tenant, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, invalid("owner_id", "is required")
	}

	t, err := d.store.GetTenantByOwner(ctx, ownerID)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get tenant by owner: %w", err)
	}

	owner, err := d.accounts.GetOwnerByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("owner %s: %w", ownerID, ErrNotFound)
		}
		return nil, fmt.Errorf("get owner: %w", err)
	}

	t, err = d.store.InsertTenant(ctx, model.Tenant{
		OwnerID:      ownerID,
		SiteRef:      strings.TrimSpace(siteRef),
		BusinessName: defaultBusinessName,
		Email:        owner.Email,
		Timezone:     defaultTimezone,
		Currency:     defaultCurrency,
		Status:       model.StatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("insert tenant: %w", err)
	}
	return t, nil
}

func (d *Directory) GetTenant(ctx context.Context, tenantID string) (*model.Tenant, error) {
	t, err := d.store.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return t, nil
}
