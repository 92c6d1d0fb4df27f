// Package dataset loads tidy observation tables from external formats into
// the shape package animaltag projects onto the BUFR template: one row per
// fix, columns {time, profile, lat, lon, z, temperature} plus optional
// {salinity, pressure}.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/axiom-data-science/bufrgo/animaltag"
	"github.com/axiom-data-science/bufrgo/errs"
)

// requiredColumns are the dataset columns that must be present; all others
// are optional and default to unbound.
var requiredColumns = []string{"time", "profile", "lat", "lon", "z", "temperature"}

// LoadCSV reads a tidy observation table from r in the column layout
// described by the package doc and returns it as animaltag.Observation
// rows. Timestamps must be RFC 3339.
func LoadCSV(r io.Reader) ([]animaltag.Observation, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parsing observation csv: %v", errs.ErrBadInput, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: observation csv has no header row", errs.ErrBadInput)
	}

	col := map[string]int{}
	for i, name := range rows[0] {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%w: observation csv missing required column %q", errs.ErrBadInput, name)
		}
	}

	out := make([]animaltag.Observation, 0, len(rows)-1)
	for _, rec := range rows[1:] {
		obs, err := parseRow(rec, col)
		if err != nil {
			return nil, err
		}
		out = append(out, obs)
	}

	return out, nil
}

func parseRow(rec []string, col map[string]int) (animaltag.Observation, error) {
	get := func(name string) string {
		if i, ok := col[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}

		return ""
	}

	t, err := time.Parse(time.RFC3339, get("time"))
	if err != nil {
		return animaltag.Observation{}, fmt.Errorf("%w: parsing time %q: %v", errs.ErrBadInput, get("time"), err)
	}

	lat, err := parseFloat(get("lat"))
	if err != nil {
		return animaltag.Observation{}, err
	}
	lon, err := parseFloat(get("lon"))
	if err != nil {
		return animaltag.Observation{}, err
	}
	z, err := parseFloat(get("z"))
	if err != nil {
		return animaltag.Observation{}, err
	}
	temperature, err := parseFloat(get("temperature"))
	if err != nil {
		return animaltag.Observation{}, err
	}

	obs := animaltag.Observation{
		Time:        t,
		Profile:     get("profile"),
		Lat:         lat,
		Lon:         lon,
		Z:           z,
		Temperature: temperature,
	}

	if raw := get("salinity"); raw != "" {
		v, err := parseFloat(raw)
		if err != nil {
			return animaltag.Observation{}, err
		}
		obs.Salinity = &v
	}
	if raw := get("pressure"); raw != "" {
		v, err := parseFloat(raw)
		if err != nil {
			return animaltag.Observation{}, err
		}
		obs.Pressure = &v
	}

	return obs, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: parsing numeric value %q: %v", errs.ErrBadInput, s, err)
	}

	return v, nil
}

// LoadFile dispatches on path's extension. Only CSV is implemented; the
// Parquet and netCDF extensions are recognized but rejected with
// ErrUnsupportedFormat rather than silently producing a wrong result.
func LoadFile(path string, open func(string) (io.ReadCloser, error)) ([]animaltag.Observation, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		f, err := open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: opening %s: %v", errs.ErrIO, path, err)
		}
		defer f.Close()

		return LoadCSV(f)
	case ".parquet", ".nc", ".netcdf":
		return nil, fmt.Errorf("%w: %s datasets are not implemented by this loader", errs.ErrUnsupportedFormat, ext)
	default:
		return nil, fmt.Errorf("%w: unrecognized dataset extension %q", errs.ErrUnsupportedFormat, ext)
	}
}
