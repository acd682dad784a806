package store

import (
	"context"
	"errors"

	"github.com/sartorproj/weathercast/compare"
	"github.com/sartorproj/weathercast/timeseries"
)

// Tee writes to every store and reads from the first one holding the key.
type Tee []Store

func (t Tee) Put(ctx context.Context, city string, model compare.Model, f *timeseries.Frame) error {
	for _, s := range t {
		if err := s.Put(ctx, city, model, f); err != nil {
			return err
		}
	}
	return nil
}

func (t Tee) Get(ctx context.Context, city string, model compare.Model) (*timeseries.Frame, error) {
	for _, s := range t {
		f, err := s.Get(ctx, city, model)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return f, err
	}
	return nil, notFound(Key{City: city, Model: model})
}

func (t Tee) Delete(ctx context.Context, city string, model compare.Model) error {
	var errs []error
	for _, s := range t {
		if err := s.Delete(ctx, city, model); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
