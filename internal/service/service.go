// Package service contains the business logic.
//
// It sits between the handler and repository layers.
// It receives validated data from the handler, performs
// business operations, and calls repository methods to interact
// with the data
package service

import (
	"context"
	"errors"

	"github.com/deppfellow/attestation-plugin/internal/errs"
	"github.com/deppfellow/attestation-plugin/internal/model"
	"github.com/deppfellow/attestation-plugin/internal/repository"
	"github.com/deppfellow/attestation-plugin/internal/sqlerr"
)

// notFound turns repository.ErrNotFound into a 404 naming entity and
// every other error into the matching database HTTP error.
func notFound(err error, entity string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return errs.NewNotFoundError(entity+" not found", true, nil)
	}
	return sqlerr.HandleError(err)
}

func loadEvent(ctx context.Context, repos *repository.Repositories, eventID int64) (*model.Event, error) {
	event, err := repos.Events.Get(ctx, eventID)
	if err != nil {
		return nil, notFound(err, "Event")
	}
	return event, nil
}

func loadPosition(ctx context.Context, repos *repository.Repositories, eventID, positionID int64) (*model.OrderPosition, error) {
	position, err := repos.Positions.Get(ctx, eventID, positionID)
	if err != nil {
		return nil, notFound(err, "Order position")
	}
	return position, nil
}
