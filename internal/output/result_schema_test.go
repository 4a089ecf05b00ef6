package output

import (
	"bytes"
	"embed"
	"encoding/json"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitanuriel/agentSecOps-Guardian/internal/mistral"
	"github.com/mitanuriel/agentSecOps-Guardian/internal/scanner"
)

//go:embed result-schema.json
var resultSchema embed.FS

func compileResultSchema(t *testing.T) *jsonschema.Schema {
	schemaData, err := resultSchema.ReadFile("result-schema.json")
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	err = compiler.AddResource("result-schema.json", bytes.NewReader(schemaData))
	require.NoError(t, err)

	schema, err := compiler.Compile("result-schema.json")
	require.NoError(t, err)
	return schema
}

func TestJSONOutputMatchesSchema(t *testing.T) {
	schema := compileResultSchema(t)

	res := scanner.Scan("password: hunter2\nurl = http://example.com\ncontact: a@b.com")
	analysis := &mistral.Analysis{
		Kind: mistral.KindSecurityScore,
		Data: map[string]interface{}{"overall_security_score": 6.5},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(res, analysis, FormatJSON, &buf))

	var v interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &v))

	err := schema.Validate(v)
	assert.NoError(t, err)
}

func TestJSONOutputMatchesSchema_NoAnalysis(t *testing.T) {
	schema := compileResultSchema(t)

	var buf bytes.Buffer
	require.NoError(t, Write(scanner.Scan(""), nil, FormatJSON, &buf))

	var v interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &v))

	err := schema.Validate(v)
	assert.NoError(t, err)
}
