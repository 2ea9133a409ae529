package repository

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeServiceAccountKey(t *testing.T) {
	raw := `{"project_id":"xuunu-prod","client_email":"svc@xuunu.iam","private_key":"-----BEGIN-----\\nabc\\n-----END-----\\n"}`

	creds, project, err := normalizeServiceAccountKey(raw)
	require.NoError(t, err)
	assert.Equal(t, "xuunu-prod", project)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(creds, &decoded))
	assert.Equal(t, "-----BEGIN-----\nabc\n-----END-----\n", decoded["private_key"])
}

func TestNormalizeServiceAccountKeyErrors(t *testing.T) {
	_, _, err := normalizeServiceAccountKey("not json")
	assert.ErrorContains(t, err, "must be valid JSON")

	_, _, err = normalizeServiceAccountKey(`{"project_id":"p","private_key":"k"}`)
	assert.ErrorContains(t, err, "client_email")
}
