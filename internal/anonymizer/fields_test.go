package anonymizer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lethe/internal/entity"
	dErrors "lethe/pkg/domain-errors"
)

func fieldCtx(field string) FieldContext {
	return FieldContext{
		Key:   "LoremIpsumDolor1",
		Ref:   entity.Ref{Type: "customer", ID: "1"},
		Field: field,
	}
}

func TestCharRoundTrip(t *testing.T) {
	ctx := context.Background()
	fc := fieldCtx("first_name")

	out, err := Char{}.Anonymize(ctx, fc, "John")
	require.NoError(t, err)
	assert.NotEqual(t, "John", out)

	back, err := Char{}.Deanonymize(ctx, fc, out)
	require.NoError(t, err)
	assert.Equal(t, "John", back)
}

func TestCharRejectsNonString(t *testing.T) {
	_, err := Char{}.Anonymize(context.Background(), fieldCtx("first_name"), 42)
	assert.Error(t, err)
}

func TestDateTimeShift(t *testing.T) {
	ctx := context.Background()
	fc := fieldCtx("last_login_at")
	orig := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)

	out, err := DateTime{}.Anonymize(ctx, fc, orig)
	require.NoError(t, err)
	shifted := out.(time.Time)
	assert.True(t, shifted.Before(orig))
	assert.LessOrEqual(t, orig.Sub(shifted), 365*24*time.Hour)

	back, err := DateTime{}.Deanonymize(ctx, fc, shifted)
	require.NoError(t, err)
	assert.True(t, orig.Equal(back.(time.Time)))
}

func TestDateShift(t *testing.T) {
	ctx := context.Background()
	fc := fieldCtx("birth_date")
	orig := time.Date(1990, 3, 15, 0, 0, 0, 0, time.UTC)

	out, err := Date{MaxRange: 30}.Anonymize(ctx, fc, orig)
	require.NoError(t, err)
	back, err := Date{MaxRange: 30}.Deanonymize(ctx, fc, out)
	require.NoError(t, err)
	assert.True(t, orig.Equal(back.(time.Time)))
}

func TestDecimalRoundTrip(t *testing.T) {
	ctx := context.Background()
	fc := fieldCtx("account_balance")

	out, err := Decimal{}.Anonymize(ctx, fc, 1024.50)
	require.NoError(t, err)
	assert.NotEqual(t, 1024.50, out)

	back, err := Decimal{}.Deanonymize(ctx, fc, out)
	require.NoError(t, err)
	assert.InDelta(t, 1024.50, back.(float64), 0.001)
}

func TestJSONDocRoundTrip(t *testing.T) {
	ctx := context.Background()
	fc := fieldCtx("preferences")
	doc := `{"name":"John","age":34,"newsletter":true,"tags":["a","b"]}`

	out, err := JSONDoc{}.Anonymize(ctx, fc, doc)
	require.NoError(t, err)
	anonymized := out.(string)
	assert.NotEqual(t, doc, anonymized)

	// Still valid JSON with the same shape.
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(anonymized), &decoded))
	assert.Len(t, decoded, 4)

	back, err := JSONDoc{}.Deanonymize(ctx, fc, anonymized)
	require.NoError(t, err)
	var restored map[string]any
	require.NoError(t, json.Unmarshal([]byte(back.(string)), &restored))
	assert.Equal(t, "John", restored["name"])
	assert.Equal(t, float64(34), restored["age"])
	assert.Equal(t, true, restored["newsletter"])
}

func TestJSONDocInvalidInput(t *testing.T) {
	_, err := JSONDoc{}.Anonymize(context.Background(), fieldCtx("preferences"), "{broken")
	assert.Error(t, err)
}

func TestStaticValue(t *testing.T) {
	s := StaticValue{Value: "REDACTED"}
	assert.False(t, s.Reversible())

	out, err := s.Anonymize(context.Background(), fieldCtx("phone"), "+420123456789")
	require.NoError(t, err)
	assert.Equal(t, "REDACTED", out)
}

func TestFunctionStrategy(t *testing.T) {
	f := Function{
		Func: func(_ FieldContext, value any) (any, error) {
			return value.(string) + "-x", nil
		},
	}
	assert.False(t, f.Reversible())

	out, err := f.Anonymize(context.Background(), fieldCtx("note"), "v")
	require.NoError(t, err)
	assert.Equal(t, "v-x", out)

	_, err = f.Deanonymize(context.Background(), fieldCtx("note"), "v-x")
	assert.True(t, dErrors.Is(err, dErrors.CodeIrreversibleField))
}

func TestVaultedRoundTrip(t *testing.T) {
	ctx := context.Background()
	fc := fieldCtx("phone")
	store := newMemoryVault()
	v := Vaulted{Inner: StaticValue{Value: "000"}, Store: store}

	assert.True(t, v.Reversible())

	out, err := v.Anonymize(ctx, fc, "+420123456789")
	require.NoError(t, err)
	assert.Equal(t, "000", out)

	back, err := v.Deanonymize(ctx, fc, out)
	require.NoError(t, err)
	assert.Equal(t, "+420123456789", back)

	// The vault entry is consumed on restore.
	_, err = v.Deanonymize(ctx, fc, out)
	assert.True(t, dErrors.Is(err, dErrors.CodeNoAnonymizationRecord))
}

func TestHashTextTruncatesToInputLength(t *testing.T) {
	ctx := context.Background()
	fc := fieldCtx("password")

	out, err := MD5Text().Anonymize(ctx, fc, "secret")
	require.NoError(t, err)
	hashed := out.(string)
	assert.Len(t, hashed, len("secret"))
	assert.NotEqual(t, "secret", hashed)

	// Deterministic.
	again, err := MD5Text().Anonymize(ctx, fc, "secret")
	require.NoError(t, err)
	assert.Equal(t, hashed, again)
}

func TestNewHashText(t *testing.T) {
	for _, name := range []string{"md5", "sha1", "sha256", "sha512"} {
		h, err := NewHashText(name)
		require.NoError(t, err, name)
		assert.False(t, h.Reversible())
	}
	_, err := NewHashText("crc32")
	assert.Error(t, err)
}

// memoryVault is a tiny Vault for strategy tests.
type memoryVault struct {
	entries map[string]any
}

func newMemoryVault() *memoryVault {
	return &memoryVault{entries: map[string]any{}}
}

func (m *memoryVault) Put(_ context.Context, ref entity.Ref, field string, original any) error {
	m.entries[ref.String()+"/"+field] = original
	return nil
}

func (m *memoryVault) Get(_ context.Context, ref entity.Ref, field string) (any, bool, error) {
	v, ok := m.entries[ref.String()+"/"+field]
	return v, ok, nil
}

func (m *memoryVault) Delete(_ context.Context, ref entity.Ref, field string) error {
	delete(m.entries, ref.String()+"/"+field)
	return nil
}
