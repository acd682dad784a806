package store

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/sartorproj/weathercast/compare"
	"github.com/sartorproj/weathercast/report"
	"github.com/sartorproj/weathercast/timeseries"
)

// Dir stores tables as prediction CSV files under a report layout.
type Dir struct {
	Layout   report.Layout
	Decimals int
}

// NewDir returns a directory store rooted at root writing two decimals.
func NewDir(root string) *Dir {
	return &Dir{Layout: report.Layout{Root: root}, Decimals: 2}
}

func (d *Dir) Put(ctx context.Context, city string, model compare.Model, f *timeseries.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return timeseries.SaveFrame(f, d.Layout.PredictionsPath(model, city), d.Decimals)
}

func (d *Dir) Get(ctx context.Context, city string, model compare.Model) (*timeseries.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := timeseries.LoadFrame(d.Layout.PredictionsPath(model, city), nil)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(Key{City: city, Model: model})
	}
	return f, err
}

func (d *Dir) Delete(ctx context.Context, city string, model compare.Model) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(d.Layout.PredictionsPath(model, city))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
