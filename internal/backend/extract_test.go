package backend

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustObject(t *testing.T, raw string) object {
	t.Helper()
	var o object
	require.NoError(t, json.Unmarshal([]byte(raw), &o))
	return o
}

func TestDirectoryRecordStructuredShape(t *testing.T) {
	o := mustObject(t, `{"exists": true, "employee": {"id": "E1", "name": "Arisa"}}`)
	record := directoryRecord(o, "employee")
	require.NotNil(t, record)
	assert.Equal(t, "E1", record.str("id"))
}

func TestDirectoryRecordStructuredMiss(t *testing.T) {
	o := mustObject(t, `{"exists": false, "employee": {"id": "E1"}}`)
	assert.Nil(t, directoryRecord(o, "employee"))
}

func TestDirectoryRecordLegacyShape(t *testing.T) {
	o := mustObject(t, `{"customer": {"id": "C9", "phone": "0812345678"}}`)
	record := directoryRecord(o, "customer")
	require.NotNil(t, record)
	assert.Equal(t, "C9", record.str("id"))
}

func TestDirectoryRecordLegacyWithoutIDIsMiss(t *testing.T) {
	o := mustObject(t, `{"customer": {"name": "nobody"}}`)
	assert.Nil(t, directoryRecord(o, "customer"))
}

func TestRegistrationRecordShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"nested customer", `{"customer": {"id": "C1"}}`, "C1"},
		{"nested data", `{"data": {"id": "C2"}}`, "C2"},
		{"flat", `{"id": "C3", "name": "direct"}`, "C3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := registrationRecord(mustObject(t, tt.body))
			require.NotNil(t, record)
			assert.Equal(t, tt.want, record.str("id"))
		})
	}
}

func TestRegistrationRecordNoUsableShape(t *testing.T) {
	assert.Nil(t, registrationRecord(mustObject(t, `{"status": "ok"}`)))
}

func TestSessionTokenPriorityOrder(t *testing.T) {
	// token outranks access_token outranks jwt outranks accessToken.
	o := mustObject(t, `{"accessToken": "d", "jwt": "c", "access_token": "b", "token": "a"}`)
	assert.Equal(t, "a", sessionToken(o))

	o = mustObject(t, `{"accessToken": "d", "jwt": "c"}`)
	assert.Equal(t, "c", sessionToken(o))

	o = mustObject(t, `{"expires_in": 3600}`)
	assert.Equal(t, "", sessionToken(o))
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"number", `2.5`, 2.5},
		{"integer", `10`, 10},
		{"numeric string", `"2.5"`, 2.5},
		{"padded string", `" 3 "`, 3},
		{"empty string", `""`, 0},
		{"null", `null`, 0},
		{"undefined literal", `"undefined"`, 0},
		{"garbage", `"lots"`, 0},
		{"object", `{"rate": 1}`, 0},
		{"negative", `-4`, -4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw json.RawMessage
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &raw))
			assert.Equal(t, tt.want, parseRate(raw))
		})
	}
}

func TestParseRateAbsentField(t *testing.T) {
	assert.Equal(t, float64(0), parseRate(nil))
}

func TestStrAcceptsNumericIDs(t *testing.T) {
	o := mustObject(t, `{"id": 42}`)
	assert.Equal(t, "42", o.str("id"))
}
