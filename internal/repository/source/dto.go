package source

import (
	"strconv"

	"github.com/crowsnest-io/spyglass/internal/db"
	"github.com/crowsnest-io/spyglass/internal/domain"
)

// Stored hash field names shared by every collection.
const (
	fieldTitle       = "title"
	fieldDescription = "description"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindNumber
)

type metaField struct {
	name string
	kind fieldKind
}

// metaSchema lists each variant's metadata fields in their canonical order,
// which fixes the Metadata iteration order for identical inputs.
var metaSchema = map[domain.SourceType][]metaField{
	domain.TypeKeyword: {
		{name: "search_volume", kind: kindNumber},
		{name: "difficulty", kind: kindNumber},
		{name: "intent", kind: kindString},
	},
	domain.TypePost: {
		{name: "status", kind: kindString},
		{name: "word_count", kind: kindNumber},
		{name: "seo_score", kind: kindNumber},
	},
	domain.TypeCluster: {
		{name: "status", kind: kindString},
		{name: "topic_count", kind: kindNumber},
	},
	domain.TypeOpportunity: {
		{name: "status", kind: kindString},
		{name: "priority", kind: kindNumber},
	},
}

// returnFields lists the hash fields fetched for a variant's search hits.
func returnFields(typ domain.SourceType) []string {
	fields := []string{fieldTitle, fieldDescription}
	for _, mf := range metaSchema[typ] {
		fields = append(fields, mf.name)
	}
	return fields
}

// parseMetadata extracts the variant's metadata fields from a raw hash.
func parseMetadata(typ domain.SourceType, raw map[string]string) domain.Metadata {
	var meta domain.Metadata
	for _, mf := range metaSchema[typ] {
		v, ok := raw[mf.name]
		if !ok {
			continue
		}
		switch mf.kind {
		case kindNumber:
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				meta = meta.Set(mf.name, n)
			}
		case kindString:
			meta = meta.Set(mf.name, v)
		}
	}
	return meta
}

func entryToResult(typ domain.SourceType, id string, entry db.SearchEntry) domain.SearchResult {
	return domain.SearchResult{
		Type:        typ,
		ItemID:      id,
		Title:       entry.Fields[fieldTitle],
		Description: entry.Fields[fieldDescription],
		Score:       entry.Score,
		Metadata:    parseMetadata(typ, entry.Fields),
	}
}

func entryToItem(typ domain.SourceType, id string, entry db.SearchEntry) domain.ContentItem {
	return domain.ContentItem{
		Type:        typ,
		ID:          id,
		Title:       entry.Fields[fieldTitle],
		Description: entry.Fields[fieldDescription],
		Metadata:    parseMetadata(typ, entry.Fields),
	}
}
