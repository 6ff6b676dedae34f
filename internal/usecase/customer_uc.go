package usecase

import (
	"context"
	"strings"

	"github.com/ordermgmt/ordersvc/internal/domain"
)

type CustomerUC struct {
	Customers domain.CustomerRepo
}

func (uc *CustomerUC) Create(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	if err := validateCustomer(c); err != nil {
		return nil, err
	}
	existing, err := uc.FindByCode(ctx, c.RegistrationCode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Conflictf("Customer with id [%d] already exists", c.RegistrationCode)
	}
	if err := uc.Customers.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// FindByCode returns nil when no customer has the code.
func (uc *CustomerUC) FindByCode(ctx context.Context, code int64) (*domain.Customer, error) {
	return found(uc.Customers.FindByCode(ctx, code))
}

func (uc *CustomerUC) Update(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	if err := validateCustomer(c); err != nil {
		return nil, err
	}
	existing, err := uc.FindByCode(ctx, c.RegistrationCode)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.NotFoundf("Customer with id [%d] not found", c.RegistrationCode)
	}
	if err := uc.Customers.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (uc *CustomerUC) DeleteByCode(ctx context.Context, code int64) error {
	existing, err := uc.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.NotFoundf("Customer with id [%d] not found", code)
	}
	return uc.Customers.DeleteByCode(ctx, code)
}

func validateCustomer(c *domain.Customer) error {
	if c == nil {
		return domain.InvalidArgumentf("customer is required")
	}
	if c.RegistrationCode <= 0 {
		return domain.InvalidArgumentf("registration code must be positive")
	}
	c.FullName = strings.TrimSpace(c.FullName)
	c.Email = strings.TrimSpace(c.Email)
	c.Telephone = strings.TrimSpace(c.Telephone)
	switch {
	case c.FullName == "":
		return domain.InvalidArgumentf("full name is required")
	case c.Email == "":
		return domain.InvalidArgumentf("email is required")
	case c.Telephone == "":
		return domain.InvalidArgumentf("telephone is required")
	}
	return nil
}
