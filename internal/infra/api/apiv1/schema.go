package apiv1

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const maxJSONBody = 1 << 20

// schemas are compiled once at package init; a broken embedded schema is a build defect.
var (
	batchSchema  = mustSchema("batch.json")
	secretSchema = mustSchema("secret.json")
	exportSchema = mustSchema("export.json")
	loginSchema  = mustSchema("login.json")
)

func mustSchema(name string) *gojsonschema.Schema {
	b, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		panic(err)
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b))
	if err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	return s
}

// bindJSON validates the request body against schema and decodes it into dst.
// An empty body is treated as {}.
func bindJSON(r *http.Request, schema *gojsonschema.Schema, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte("{}")
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &validationError{msg: "malformed JSON"}
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return &validationError{msg: strings.Join(msgs, "; ")}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &validationError{msg: err.Error()}
	}
	return nil
}

type validationError struct{ msg string }

func (e *validationError) Error() string { return "validation failed: " + e.msg }
