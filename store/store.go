// Package store keeps the latest forecast table of every (city, model) pair.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/sartorproj/weathercast/compare"
	"github.com/sartorproj/weathercast/timeseries"
)

// ErrNotFound is returned by Get when no table was stored for the key.
var ErrNotFound = errors.New("forecast not found")

// Store persists forecast tables. Put replaces any previous table. Delete
// of a missing key is not an error.
type Store interface {
	Put(ctx context.Context, city string, model compare.Model, f *timeseries.Frame) error
	Get(ctx context.Context, city string, model compare.Model) (*timeseries.Frame, error)
	Delete(ctx context.Context, city string, model compare.Model) error
}

// Key identifies a stored forecast table.
type Key struct {
	City  string
	Model compare.Model
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.City, k.Model)
}

func notFound(k Key) error {
	return fmt.Errorf("%w: %s", ErrNotFound, k)
}

// GetAll fetches the tables of every model for a city. Models without a
// stored table are absent from the map.
func GetAll(ctx context.Context, s Store, city string) (map[compare.Model]*timeseries.Frame, error) {
	out := make(map[compare.Model]*timeseries.Frame, len(compare.Models()))
	for _, m := range compare.Models() {
		f, err := s.Get(ctx, city, m)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[m] = f
	}
	return out, nil
}
