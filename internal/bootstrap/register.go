// Package bootstrap holds the wiring shared by the server and sweeper
// binaries: the demo domain registrations, the built-in purpose catalog,
// table mappings and the audit store selection.
package bootstrap

import (
	"lethe/internal/anonymizer"
	"lethe/internal/entity"
	"lethe/internal/fieldpath"
	"lethe/internal/purpose"
	"lethe/internal/storage"
)

// BuildRegistry declares the anonymization models for the bundled demo
// domain. Deployments embedding the service replace this with their own
// registrations.
func BuildRegistry(v anonymizer.Vault) (*anonymizer.Registry, error) {
	registry := anonymizer.NewRegistry()

	if err := registry.Register("customer", anonymizer.Model{
		Fields: map[string]anonymizer.Strategy{
			"first_name":      anonymizer.Char{},
			"last_name":       anonymizer.Char{},
			"email":           anonymizer.Email{},
			"phone":           anonymizer.Vaulted{Inner: anonymizer.StaticValue{Value: "000000000"}, Store: v},
			"birth_date":      anonymizer.Date{},
			"last_login_at":   anonymizer.DateTime{},
			"last_login_ip":   anonymizer.IPAddress{},
			"iban":            anonymizer.IBAN{},
			"account_balance": anonymizer.Decimal{},
			"preferences":     anonymizer.JSONDoc{},
			"password":        anonymizer.MD5Text(),
		},
		Relations: map[string]anonymizer.Relation{
			"addresses": {Type: "address"},
			"notes":     {Type: "note"},
		},
	}); err != nil {
		return nil, err
	}

	if err := registry.Register("address", anonymizer.Model{
		Fields: map[string]anonymizer.Strategy{
			"street":   anonymizer.Char{},
			"city":     anonymizer.Char{},
			"postcode": anonymizer.Char{},
		},
	}); err != nil {
		return nil, err
	}

	if err := registry.Register("note", anonymizer.Model{
		Fields: map[string]anonymizer.Strategy{
			"body": anonymizer.Char{},
		},
	}); err != nil {
		return nil, err
	}

	if err := registry.Validate(); err != nil {
		return nil, err
	}
	return registry, nil
}

// DefaultPurposes is the built-in catalog used when no PURPOSES_FILE is
// configured.
func DefaultPurposes(schema fieldpath.Schema) (*purpose.Catalog, error) {
	catalog := purpose.NewCatalog()
	declarations := []struct {
		purpose *purpose.Purpose
		entries []fieldpath.Entry
	}{
		{
			purpose: &purpose.Purpose{
				Slug:       "general",
				Name:       "General processing",
				EntityType: "customer",
				Retention:  purpose.Retention{Years: 2},
			},
			entries: []fieldpath.Entry{fieldpath.All()},
		},
		{
			purpose: &purpose.Purpose{
				Slug:       "first_last",
				Name:       "Name retention",
				EntityType: "customer",
				Retention:  purpose.Retention{Years: 10},
			},
			entries: []fieldpath.Entry{
				fieldpath.F("first_name"),
				fieldpath.F("last_name"),
			},
		},
		{
			purpose: &purpose.Purpose{
				Slug:       "marketing",
				Name:       "Marketing contact",
				EntityType: "customer",
				Retention:  purpose.Retention{Years: 1},
			},
			entries: []fieldpath.Entry{
				fieldpath.F("email"),
				fieldpath.F("phone"),
			},
		},
	}
	for _, decl := range declarations {
		tree, err := fieldpath.Parse(decl.entries, schema, decl.purpose.EntityType)
		if err != nil {
			return nil, err
		}
		decl.purpose.Fields = tree
		if err := catalog.Register(decl.purpose); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

// MapTables binds the demo domain types to their Postgres tables.
func MapTables(loader *storage.PostgresLoader) error {
	if err := loader.Map("customer", storage.TableSpec{
		Table:     "customers",
		KeyColumn: "id",
		Columns: map[string]string{
			"first_name":      "first_name",
			"last_name":       "last_name",
			"email":           "email",
			"phone":           "phone",
			"birth_date":      "birth_date",
			"last_login_at":   "last_login_at",
			"last_login_ip":   "last_login_ip",
			"iban":            "iban",
			"account_balance": "account_balance",
			"preferences":     "preferences",
			"password":        "password",
		},
		Relations: map[string]storage.RelationSpec{
			"addresses": {Type: "address", ForeignColumn: "customer_id"},
			"notes":     {Type: "note", ForeignColumn: "customer_id"},
		},
	}); err != nil {
		return err
	}
	if err := loader.Map("address", storage.TableSpec{
		Table:     "addresses",
		KeyColumn: "id",
		Columns: map[string]string{
			"street":   "street",
			"city":     "city",
			"postcode": "postcode",
		},
	}); err != nil {
		return err
	}
	return loader.Map("note", storage.TableSpec{
		Table:     "notes",
		KeyColumn: "id",
		Columns:   map[string]string{"body": "body"},
	})
}

// SeedMemoryLoader provides a couple of records so the service is usable
// out of the box without a database.
func SeedMemoryLoader() *storage.MemoryLoader {
	loader := storage.NewMemoryLoader()
	customer := entity.NewRecord("customer", "1", map[string]any{
		"first_name":      "John",
		"last_name":       "Smith",
		"email":           "john.smith@example.com",
		"phone":           "+420123456789",
		"birth_date":      nil,
		"last_login_at":   nil,
		"last_login_ip":   "192.0.2.10",
		"iban":            "CZ6508000000192000145399",
		"account_balance": 1024.50,
		"preferences":     `{"newsletter":true}`,
		"password":        "5f4dcc3b5aa765d61d8327deb882cf99",
	})
	address := entity.NewRecord("address", "1", map[string]any{
		"street":   "Na Porici 1042",
		"city":     "Prague",
		"postcode": "11000",
	})
	customer.Attach("addresses", address)
	loader.Put(customer, address)
	return loader
}
