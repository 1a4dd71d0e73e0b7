package contactgraph

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getBoolFromRecord(record *neo4j.Record, key string) bool {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return false
	}
	if b, ok := val.(bool); ok {
		return b
	}
	return false
}

func getTimeFromRecord(record *neo4j.Record, key string) time.Time {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return time.Time{}
	}
	switch t := val.(type) {
	case time.Time:
		return t.UTC()
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}
