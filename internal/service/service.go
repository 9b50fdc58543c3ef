package service

import (
	"errors"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/ws"
	"go-inventory-ledger/pkg/apperror"
)

// Actor is the authenticated caller of an operation. Label is the
// human-readable name recorded on ledger entries.
type Actor struct {
	ID    string
	Role  model.Role
	Label string
}

// SystemActor is used for seeding and bootstrap writes.
var SystemActor = Actor{ID: "system", Role: model.RoleAdmin, Label: "system"}

// Publisher receives committed ledger events.
type Publisher interface {
	Publish(event ws.Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(ws.Event) {}

// stockWriteError maps a failed balance write.
func stockWriteError(err error) error {
	if errors.Is(err, repository.ErrStaleStock) {
		return apperror.Conflict("Product stock was modified concurrently, please retry")
	}
	return apperror.FromDB(err, "Product not found")
}
