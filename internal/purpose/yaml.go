package purpose

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"lethe/internal/fieldpath"
	dErrors "lethe/pkg/domain-errors"
)

// Purpose files declare the catalog the way application code would, just in
// data:
//
//	purposes:
//	  - slug: general
//	    name: General processing
//	    entity: customer
//	    retention: 2y
//	    fields: ["*"]
//	  - slug: first_last
//	    name: Name retention
//	    entity: customer
//	    retention: 10y
//	    fields:
//	      - first_name
//	      - last_name
//	      - addresses: [city]
//
// A list item is a leaf field name, the wildcard "*", or a single-key map
// declaring a relation with its own nested list.

type purposeFile struct {
	Purposes []purposeDecl `yaml:"purposes"`
}

type purposeDecl struct {
	Slug      string      `yaml:"slug"`
	Name      string      `yaml:"name"`
	Entity    string      `yaml:"entity"`
	Retention Retention   `yaml:"retention"`
	Fields    []yaml.Node `yaml:"fields"`
}

// LoadFile reads a purpose declaration file and registers every purpose in a
// fresh catalog, validating field declarations against the schema eagerly.
func LoadFile(path string, schema fieldpath.Schema) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read purpose file: %w", err)
	}
	return Load(raw, schema)
}

// Load parses YAML purpose declarations and builds the catalog.
func Load(raw []byte, schema fieldpath.Schema) (*Catalog, error) {
	var file purposeFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeMalformedSpec, "parse purpose file")
	}
	catalog := NewCatalog()
	for _, decl := range file.Purposes {
		if decl.Entity == "" {
			return nil, dErrors.Newf(dErrors.CodeMalformedSpec, "purpose %q declares no entity type", decl.Slug)
		}
		entries, err := decodeEntries(decl.Fields)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeMalformedSpec, "purpose "+decl.Slug)
		}
		tree, err := fieldpath.Parse(entries, schema, decl.Entity)
		if err != nil {
			return nil, err
		}
		p := &Purpose{
			Slug:       decl.Slug,
			Name:       decl.Name,
			EntityType: decl.Entity,
			Retention:  decl.Retention,
			Fields:     tree,
		}
		if err := catalog.Register(p); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

func decodeEntries(nodes []yaml.Node) ([]fieldpath.Entry, error) {
	entries := make([]fieldpath.Entry, 0, len(nodes))
	for _, node := range nodes {
		switch node.Kind {
		case yaml.ScalarNode:
			var name string
			if err := node.Decode(&name); err != nil {
				return nil, err
			}
			entries = append(entries, fieldpath.F(name))
		case yaml.MappingNode:
			if len(node.Content) != 2 {
				return nil, fmt.Errorf("relation entry must have exactly one key")
			}
			var relation string
			if err := node.Content[0].Decode(&relation); err != nil {
				return nil, err
			}
			var children []yaml.Node
			if err := node.Content[1].Decode(&children); err != nil {
				return nil, err
			}
			childEntries, err := decodeEntries(children)
			if err != nil {
				return nil, err
			}
			entries = append(entries, fieldpath.Rel(relation, childEntries...))
		default:
			return nil, fmt.Errorf("unsupported field entry (line %d)", node.Line)
		}
	}
	return entries, nil
}
