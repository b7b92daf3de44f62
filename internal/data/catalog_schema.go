package data

import (
	"reflect"

	"github.com/invopop/jsonschema"

	"github.com/udisondev/gearcfg/internal/model"
)

// Schema reflects the JSON Schema of the catalog document from the model types.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}

	schema := reflector.ReflectFromType(reflect.TypeOf(model.Catalog{}))
	schema.Version = ""
	schema.Title = "Equipment Catalog"
	schema.Description = "Character, slot and item definitions consumed by the equip-state engine."
	return schema
}
