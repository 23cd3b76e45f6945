// Package store holds the MongoDB-backed collections for users and
// properties. Lookups that match nothing return ErrNotFound and writes that
// violate a unique index return ErrDuplicate, so services can classify
// failures without importing the driver.
package store

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

var ErrNotFound = errors.New("document not found")

var ErrDuplicate = errors.New("duplicate key")

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return err
}
