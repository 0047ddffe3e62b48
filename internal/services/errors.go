package services

import (
	"datalens/internal/errors"
)

// datasetNotFound is the one translation both services need: the storage
// layer's generic not-found becomes the API error carrying the dataset ID.
func datasetNotFound(id string) error {
	return errors.DatasetNotFoundError(id)
}
