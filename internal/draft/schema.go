package draft

import (
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"
)

// Schema describes the creation payload (an Invoice) as JSON Schema.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeOf(decimal.Decimal{}) {
				return &jsonschema.Schema{
					OneOf: []*jsonschema.Schema{
						{Type: "number"},
						{Type: "string", Pattern: `^-?\d+(\.\d+)?$`},
					},
				}
			}
			return nil
		},
	}

	s := reflector.Reflect(&Invoice{})
	s.Title = "Invoice draft"
	s.Description = "Payload accepted by POST /invoices. Rows without a name are dropped before validation."
	return s
}
