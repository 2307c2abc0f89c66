package result

import (
	"encoding/csv"
	"os"
	"strconv"
)

// WriteLoadProfileCSV writes the dense per-step aggregated CP load and
// storage power to path, one row per step.
func WriteLoadProfileCSV(path string, s *Store) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"step", "cp_load_kw", "storage_power_kw"}); err != nil {
		return err
	}

	load := s.AggregatedLoadProfile()
	storage := s.StorageProfile()
	for i := range load {
		row := []string{
			strconv.Itoa(i),
			fmtFloat(load[i]),
			fmtFloat(storage[i]),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
