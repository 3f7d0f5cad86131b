package applications

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed seed.json
var seedJSON []byte

var seedRecords = mustDecodeSeed(seedJSON)

func mustDecodeSeed(raw []byte) []Record {
	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		panic(fmt.Sprintf("applications: invalid seed data: %v", err))
	}
	return records
}

// Seed returns a copy of the built-in sample applicants.
func Seed() []Record {
	return cloneRecords(seedRecords)
}

func cloneRecords(in []Record) []Record {
	if in == nil {
		return nil
	}
	out := make([]Record, len(in))
	copy(out, in)
	return out
}
