package anonymizer

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	dErrors "lethe/pkg/domain-errors"
)

// Char translates free text with the full printable-ASCII alphabet.
// Characters outside the alphabet (accented letters, emoji) pass through
// unchanged.
type Char struct{}

func (Char) Reversible() bool { return true }

func (Char) Anonymize(_ context.Context, fc FieldContext, value any) (any, error) {
	s, err := asString(value)
	if err != nil {
		return nil, err
	}
	return encryptText(fc.Key, s), nil
}

func (Char) Deanonymize(_ context.Context, fc FieldContext, value any) (any, error) {
	s, err := asString(value)
	if err != nil {
		return nil, err
	}
	return decryptText(fc.Key, s), nil
}

// Email keeps the address syntactically valid: local part and domain are
// translated, the TLD survives in clear.
type Email struct{}

func (Email) Reversible() bool { return true }

func (Email) Anonymize(_ context.Context, fc FieldContext, value any) (any, error) {
	s, err := asString(value)
	if err != nil {
		return nil, err
	}
	return translateEmail(fc.Key, s, true), nil
}

func (Email) Deanonymize(_ context.Context, fc FieldContext, value any) (any, error) {
	s, err := asString(value)
	if err != nil {
		return nil, err
	}
	return translateEmail(fc.Key, s, false), nil
}

// IBAN preserves the country code and the letter/digit pattern of the rest.
// The result does not pass checksum validation, by intent.
type IBAN struct{}

func (IBAN) Reversible() bool { return true }

func (IBAN) Anonymize(_ context.Context, fc FieldContext, value any) (any, error) {
	s, err := asString(value)
	if err != nil {
		return nil, err
	}
	return translateIBAN(fc.Key, s, true), nil
}

func (IBAN) Deanonymize(_ context.Context, fc FieldContext, value any) (any, error) {
	s, err := asString(value)
	if err != nil {
		return nil, err
	}
	return translateIBAN(fc.Key, s, false), nil
}

// IPAddress applies ipcipher, keeping the address family.
type IPAddress struct{}

func (IPAddress) Reversible() bool { return true }

func (IPAddress) Anonymize(_ context.Context, fc FieldContext, value any) (any, error) {
	s, err := asString(value)
	if err != nil {
		return nil, err
	}
	return encryptIP(fc.Key, s)
}

func (IPAddress) Deanonymize(_ context.Context, fc FieldContext, value any) (any, error) {
	s, err := asString(value)
	if err != nil {
		return nil, err
	}
	return decryptIP(fc.Key, s)
}

// DateTime shifts a timestamp backwards by a key-derived number of seconds,
// at most MaxRange (default one year).
type DateTime struct {
	MaxRange uint64 // seconds
}

const defaultDateTimeRange = 365 * 24 * 60 * 60

func (d DateTime) rangeSeconds() uint64 {
	if d.MaxRange == 0 {
		return defaultDateTimeRange
	}
	return d.MaxRange
}

func (DateTime) Reversible() bool { return true }

func (d DateTime) Anonymize(_ context.Context, fc FieldContext, value any) (any, error) {
	t, err := asTime(value)
	if err != nil {
		return nil, err
	}
	return t.Add(-time.Duration(numerizeKeyMod(fc.Key, d.rangeSeconds())) * time.Second), nil
}

func (d DateTime) Deanonymize(_ context.Context, fc FieldContext, value any) (any, error) {
	t, err := asTime(value)
	if err != nil {
		return nil, err
	}
	return t.Add(time.Duration(numerizeKeyMod(fc.Key, d.rangeSeconds())) * time.Second), nil
}

// Date shifts a date backwards by a key-derived number of days, at most
// MaxRange (default one year).
type Date struct {
	MaxRange uint64 // days
}

func (d Date) rangeDays() uint64 {
	if d.MaxRange == 0 {
		return 365
	}
	return d.MaxRange
}

func (Date) Reversible() bool { return true }

func (d Date) Anonymize(_ context.Context, fc FieldContext, value any) (any, error) {
	t, err := asTime(value)
	if err != nil {
		return nil, err
	}
	return t.AddDate(0, 0, -int(numerizeKeyMod(fc.Key, d.rangeDays()))), nil
}

func (d Date) Deanonymize(_ context.Context, fc FieldContext, value any) (any, error) {
	t, err := asTime(value)
	if err != nil {
		return nil, err
	}
	return t.AddDate(0, 0, int(numerizeKeyMod(fc.Key, d.rangeDays()))), nil
}

// Decimal offsets an amount by a key-derived value with the configured
// number of decimal places, at most MaxRange units.
type Decimal struct {
	MaxRange      uint64
	DecimalPlaces int
}

func (d Decimal) offset(key string) float64 {
	maxRange := d.MaxRange
	if maxRange == 0 {
		maxRange = 10000
	}
	places := d.DecimalPlaces
	if places == 0 {
		places = 2
	}
	scale := math.Pow10(places)
	return float64(numerizeKeyMod(key, maxRange*uint64(scale))) / scale
}

func (Decimal) Reversible() bool { return true }

func (d Decimal) Anonymize(_ context.Context, fc FieldContext, value any) (any, error) {
	f, err := asFloat(value)
	if err != nil {
		return nil, err
	}
	return roundTo(f+d.offset(fc.Key), d.places()), nil
}

func (d Decimal) Deanonymize(_ context.Context, fc FieldContext, value any) (any, error) {
	f, err := asFloat(value)
	if err != nil {
		return nil, err
	}
	return roundTo(f-d.offset(fc.Key), d.places()), nil
}

func (d Decimal) places() int {
	if d.DecimalPlaces == 0 {
		return 2
	}
	return d.DecimalPlaces
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}

// JSONDoc walks a JSON document and translates every scalar in place:
// strings with a JSON-safe alphabet, numbers by bounded offsets, booleans by
// a key-derived flip. Accepts a JSON string, []byte, or an already decoded
// value, and returns the same shape it was given.
type JSONDoc struct{}

// jsonNumberRange bounds the numeric offset applied inside JSON documents.
const jsonNumberRange = 10000

func (JSONDoc) Reversible() bool { return true }

func (j JSONDoc) Anonymize(_ context.Context, fc FieldContext, value any) (any, error) {
	return j.apply(fc, value, true)
}

func (j JSONDoc) Deanonymize(_ context.Context, fc FieldContext, value any) (any, error) {
	return j.apply(fc, value, false)
}

func (j JSONDoc) apply(fc FieldContext, value any, encrypt bool) (any, error) {
	switch v := value.(type) {
	case string:
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return nil, fmt.Errorf("field %s: invalid json: %w", fc.Field, err)
		}
		out, err := json.Marshal(j.walk(fc.Key, decoded, encrypt))
		if err != nil {
			return nil, err
		}
		return string(out), nil
	case []byte:
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return nil, fmt.Errorf("field %s: invalid json: %w", fc.Field, err)
		}
		out, err := json.Marshal(j.walk(fc.Key, decoded, encrypt))
		if err != nil {
			return nil, err
		}
		return out, nil
	default:
		return j.walk(fc.Key, value, encrypt), nil
	}
}

func (j JSONDoc) walk(key string, value any, encrypt bool) any {
	sign := float64(1)
	if !encrypt {
		sign = -1
	}
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return translateText(key, v, encrypt, jsonSafeChars)
	case float64:
		// The offset depends on the key alone. Deriving it from the value
		// would break reversibility whenever the shift changes the digit
		// count.
		return v + sign*float64(numerizeKeyMod(key, jsonNumberRange))
	case bool:
		if numerizeKeyMod(key, 2) == 0 {
			return !v
		}
		return v
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = j.walk(key, item, encrypt)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = j.walk(key, item, encrypt)
		}
		return out
	default:
		return value
	}
}

// StaticValue replaces the field with a fixed configured value.
type StaticValue struct {
	Value any
}

func (StaticValue) Reversible() bool { return false }

func (s StaticValue) Anonymize(context.Context, FieldContext, any) (any, error) {
	return s.Value, nil
}

// Function applies a caller supplied transform. Reversibility follows from
// whether a deanonymize function was supplied.
type Function struct {
	Func            func(fc FieldContext, value any) (any, error)
	DeanonymizeFunc func(fc FieldContext, value any) (any, error)
}

func (f Function) Reversible() bool { return f.DeanonymizeFunc != nil }

func (f Function) Anonymize(_ context.Context, fc FieldContext, value any) (any, error) {
	if f.Func == nil {
		return nil, dErrors.New(dErrors.CodeMalformedSpec, "function strategy without a func")
	}
	return f.Func(fc, value)
}

func (f Function) Deanonymize(_ context.Context, fc FieldContext, value any) (any, error) {
	if f.DeanonymizeFunc == nil {
		return nil, dErrors.Newf(dErrors.CodeIrreversibleField, "field %s has no deanonymize function", fc.Field)
	}
	return f.DeanonymizeFunc(fc, value)
}

// Vaulted makes any strategy reversible by persisting the original value in
// the vault before applying the inner transformation.
type Vaulted struct {
	Inner Strategy
	Store Vault
}

func (Vaulted) Reversible() bool { return true }

func (v Vaulted) Anonymize(ctx context.Context, fc FieldContext, value any) (any, error) {
	if err := v.Store.Put(ctx, fc.Ref, fc.Field, value); err != nil {
		return nil, err
	}
	return v.Inner.Anonymize(ctx, fc, value)
}

func (v Vaulted) Deanonymize(ctx context.Context, fc FieldContext, _ any) (any, error) {
	original, ok, err := v.Store.Get(ctx, fc.Ref, fc.Field)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNoAnonymizationRecord,
			"no vaulted value for %s field %s", fc.Ref, fc.Field)
	}
	if err := v.Store.Delete(ctx, fc.Ref, fc.Field); err != nil {
		return nil, err
	}
	return original, nil
}

func asString(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("expected string value, got %T", value)
	}
	return s, nil
}

func asTime(value any) (time.Time, error) {
	t, ok := value.(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("expected time value, got %T", value)
	}
	return t, nil
}

func asFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("expected numeric value, got %T", value)
	}
}
