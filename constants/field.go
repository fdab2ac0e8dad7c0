package constants

// Field is a JSON key the extraction model is asked to return.
type Field string

const (
	FieldOrigin       Field = "origem"        // number A
	FieldDestination  Field = "destino"       // number B
	FieldIdentifier   Field = "identificador" // key / tested number
	FieldLocality     Field = "local"
	FieldTimestamp    Field = "data_hora"
	FieldComplaint    Field = "problema"
	FieldCustomerName Field = "nome"
)

var allFields = []Field{
	FieldOrigin,
	FieldDestination,
	FieldIdentifier,
	FieldLocality,
	FieldTimestamp,
	FieldComplaint,
	FieldCustomerName,
}

// FieldsAsStringSlice returns the extraction keys in output column order.
func FieldsAsStringSlice() []string {
	result := make([]string, len(allFields))
	for i, f := range allFields {
		result[i] = string(f)
	}
	return result
}
