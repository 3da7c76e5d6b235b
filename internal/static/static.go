package static

import _ "embed"

// APIMd contains the embedded HTTP API reference.
//
//go:embed api.md
var APIMd string

// OpenAPIJSON is the Swagger 2.0 document served to the Swagger UI.
//
//go:embed openapi.json
var OpenAPIJSON []byte
