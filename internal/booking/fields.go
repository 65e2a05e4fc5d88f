package booking

import "fmt"

// Field is a domain-side appointment field name. The stored schema keeps its
// own English column names; every translation between the two goes through
// the pair table below instead of ad hoc per-call-site mapping.
type Field string

const (
	FieldNom           Field = "nom"
	FieldTelephone     Field = "telephone"
	FieldEmail         Field = "email"
	FieldService       Field = "service"
	FieldDate          Field = "date"
	FieldHeure         Field = "heure"
	FieldMessage       Field = "message"
	FieldUserID        Field = "utilisateur"
	FieldStatus        Field = "statut"
	FieldPaymentStatus Field = "statut_paiement"
)

type fieldColumn struct {
	Field  Field
	Column string
}

// fieldColumns is the single source of truth for the domain<->store schema
// translation. Both lookup directions are derived from it.
var fieldColumns = []fieldColumn{
	{FieldNom, "name"},
	{FieldTelephone, "phone"},
	{FieldEmail, "email"},
	{FieldService, "service"},
	{FieldDate, "date"},
	{FieldHeure, "heure"},
	{FieldMessage, "message"},
	{FieldUserID, "user_id"},
	{FieldStatus, "status"},
	{FieldPaymentStatus, "payment_status"},
}

var (
	columnByField = make(map[Field]string, len(fieldColumns))
	fieldByColumn = make(map[string]Field, len(fieldColumns))
)

func init() {
	for _, fc := range fieldColumns {
		if _, dup := columnByField[fc.Field]; dup {
			panic(fmt.Sprintf("duplicate field in translation table: %s", fc.Field))
		}
		if _, dup := fieldByColumn[fc.Column]; dup {
			panic(fmt.Sprintf("duplicate column in translation table: %s", fc.Column))
		}
		columnByField[fc.Field] = fc.Column
		fieldByColumn[fc.Column] = fc.Field
	}
}

// ColumnFor translates a domain field name to its stored column name.
func ColumnFor(f Field) (string, bool) {
	c, ok := columnByField[f]
	return c, ok
}

// FieldFor translates a stored column name back to its domain field name.
func FieldFor(column string) (Field, bool) {
	f, ok := fieldByColumn[column]
	return f, ok
}

// assignments flattens a patch into translation-table order, returning the
// stored column names and the values to assign.
func (p Patch) assignments() (columns []string, values []any) {
	add := func(f Field, v any) {
		columns = append(columns, columnByField[f])
		values = append(values, v)
	}

	if p.Nom != nil {
		add(FieldNom, *p.Nom)
	}
	if p.Telephone != nil {
		add(FieldTelephone, *p.Telephone)
	}
	if p.Email != nil {
		add(FieldEmail, *p.Email)
	}
	if p.Service != nil {
		add(FieldService, *p.Service)
	}
	if p.Date != nil {
		add(FieldDate, *p.Date)
	}
	if p.Heure != nil {
		add(FieldHeure, *p.Heure)
	}
	if p.Message != nil {
		add(FieldMessage, *p.Message)
	}
	if p.Status != nil {
		add(FieldStatus, string(*p.Status))
	}
	if p.PaymentStatus != nil {
		add(FieldPaymentStatus, string(*p.PaymentStatus))
	}

	return columns, values
}
