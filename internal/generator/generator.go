package generator

import (
	"github.com/google/uuid"
)

// Generator produces values of type T, such as pipeline and run IDs.
type Generator[T any] interface {
	Next() (T, error)
}

// UUIDV4Generator produces UUIDv4 strings. Pipeline and run IDs are stored
// in UUID columns, so every ID the repository sees comes from here in
// production.
type UUIDV4Generator struct{}

func (g *UUIDV4Generator) Next() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

var _ Generator[string] = (*UUIDV4Generator)(nil)
