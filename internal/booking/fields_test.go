package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldMapIsBijective(t *testing.T) {
	require.Len(t, columnByField, len(fieldColumns))
	require.Len(t, fieldByColumn, len(fieldColumns))

	for _, fc := range fieldColumns {
		col, ok := ColumnFor(fc.Field)
		require.True(t, ok, "field %s has no column", fc.Field)
		assert.Equal(t, fc.Column, col)

		f, ok := FieldFor(fc.Column)
		require.True(t, ok, "column %s has no field", fc.Column)
		assert.Equal(t, fc.Field, f)
	}
}

func TestFieldMapRoundTrip(t *testing.T) {
	// Translating every field to its column and back must be lossless.
	for _, fc := range fieldColumns {
		col, ok := ColumnFor(fc.Field)
		require.True(t, ok)
		back, ok := FieldFor(col)
		require.True(t, ok)
		assert.Equal(t, fc.Field, back)
	}
}

func TestFieldMapKnownPairs(t *testing.T) {
	cases := map[Field]string{
		FieldNom:           "name",
		FieldTelephone:     "phone",
		FieldHeure:         "heure",
		FieldUserID:        "user_id",
		FieldStatus:        "status",
		FieldPaymentStatus: "payment_status",
	}
	for field, column := range cases {
		got, ok := ColumnFor(field)
		require.True(t, ok)
		assert.Equal(t, column, got)
	}

	_, ok := ColumnFor(Field("voiture"))
	assert.False(t, ok)
	_, ok = FieldFor("no_such_column")
	assert.False(t, ok)
}

func TestPatchAssignments(t *testing.T) {
	nom := "Mme Ngo"
	heure := "10:00"
	status := StatusConfirmed

	patch := Patch{Nom: &nom, Heure: &heure, Status: &status}
	columns, values := patch.assignments()

	require.Equal(t, []string{"name", "heure", "status"}, columns)
	require.Equal(t, []any{"Mme Ngo", "10:00", "confirmed"}, values)

	empty := Patch{}
	columns, values = empty.assignments()
	assert.Empty(t, columns)
	assert.Empty(t, values)
	assert.True(t, empty.IsEmpty())
	assert.False(t, patch.IsEmpty())
}
