// Package opsfile reads the operator-list document: a shallow JSON array
// of operator names, read once at startup (and on hot-reload) with the
// standard library's encoding/json rather than a hand-rolled scan.
package opsfile

import (
	"encoding/json"
	"os"
)

// operatorRecord is one entry of the ops.json array. Only Name is
// required; additional fields in the source document are ignored.
type operatorRecord struct {
	Name string `json:"name"`
}

// Load reads path and returns the list of operator names in file order.
// A missing file yields an empty list.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var records []operatorRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(records))
	for _, r := range records {
		if r.Name != "" {
			names = append(names, r.Name)
		}
	}
	return names, nil
}
