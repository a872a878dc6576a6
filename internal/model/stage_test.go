package model

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageMetadata(t *testing.T) {
	s, err := ParseStage(3)
	require.NoError(t, err)
	assert.Equal(t, "stage3", s.Key())
	assert.Equal(t, "/api/stage3", s.Path())
	assert.Equal(t, "Stage 3: Update NS records", s.Title())
	assert.False(t, s.NeedsIP())
	assert.True(t, StageARecords.NeedsIP())

	_, err = ParseStage(5)
	assert.Error(t, err)
	_, err = ParseStage(0)
	assert.Error(t, err)
}

func TestDecodeOutcome(t *testing.T) {
	cases := []struct {
		name      string
		raw       string
		kind      OutcomeKind
		items     int
		message   string
		malformed bool
	}{
		{"envelope", `{"results":[{"domain":"a.com","status":"success","message":"ok"}]}`, OutcomeList, 1, "", false},
		{"bare array", `[{"domain":"a.com","status":"error","message":"x"},{"domain":"b.com","status":"success","message":"y"}]`, OutcomeList, 2, "", false},
		{"error", `{"error":"Domains are required"}`, OutcomeError, 0, "Domains are required", false},
		{"empty error falls through", `{"error":"","results":[]}`, OutcomeList, 0, "", false},
		{"numeric error", `{"error":123}`, OutcomeError, 0, "123", false},
		{"object error", `{"error":{"code":7}}`, OutcomeError, 0, `{"code":7}`, false},
		{"false error falls through", `{"error":false,"results":[]}`, OutcomeList, 0, "", false},
		{"null error falls through", `{"error":null,"results":[]}`, OutcomeList, 0, "", false},
		{"object without results", `{"zone":"x"}`, OutcomeList, 0, "", true},
		{"results not a list", `{"results":"nope"}`, OutcomeList, 0, "", true},
		{"scalar", `42`, OutcomeList, 0, "", true},
		{"null", `null`, OutcomeList, 0, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o, err := DecodeOutcome([]byte(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.kind, o.Kind)
			assert.Len(t, o.Items, tc.items)
			assert.Equal(t, tc.message, o.Message)
			assert.Equal(t, tc.malformed, o.Malformed)
		})
	}
}

func TestDecodeOutcome_InvalidJSON(t *testing.T) {
	for _, raw := range []string{"", "<html>", `{"results":`} {
		_, err := DecodeOutcome([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestDecodeOutcome_Nameservers(t *testing.T) {
	o, err := DecodeOutcome([]byte(`{"results":[{"domain":"a.com","status":"success","message":"ok","nameservers":["ns1","ns2"],"zone_id":"z1"}]}`))
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, []string{"ns1", "ns2"}, o.Items[0].Nameservers)
	assert.Equal(t, "z1", o.Items[0].ZoneID)
	assert.True(t, o.Items[0].Succeeded())
}

func TestDecodeBundle(t *testing.T) {
	bundle, remote, err := DecodeBundle([]byte(`{"stage1":null,"stage2":{"results":[{"domain":"a.com","status":"success","message":"ok"}]},"stage4":[]}`))
	require.NoError(t, err)
	assert.Nil(t, remote)
	assert.Len(t, bundle, 2)
	assert.Contains(t, bundle, StageCloudflare)
	assert.Contains(t, bundle, StageTLS)
	assert.NotContains(t, bundle, StageARecords)

	_, remote, err = DecodeBundle([]byte(`{"error":"IP required"}`))
	require.NoError(t, err)
	require.NotNil(t, remote)
	assert.Equal(t, "IP required", remote.Message)

	_, remote, err = DecodeBundle([]byte(`{"error":true}`))
	require.NoError(t, err)
	require.NotNil(t, remote)
	assert.Equal(t, "true", remote.Message)

	_, _, err = DecodeBundle([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestErrorKinds(t *testing.T) {
	v := Validation("enter a domain")
	assert.Equal(t, "enter a domain", v.Error())
	assert.True(t, errors.Is(v, ErrValidation))
	assert.Equal(t, "validation", Kind(v))

	f := InFlight("busy")
	assert.True(t, errors.Is(f, ErrValidation))
	assert.Equal(t, "in_flight", Kind(f))

	assert.Equal(t, "remote", Kind(Remote("boom")))
	assert.Equal(t, "transport", Kind(Transport(errors.New("dial"))))
	assert.Nil(t, Transport(nil))
	assert.Equal(t, "", Kind(nil))
}

func TestCredentialsHelpers(t *testing.T) {
	c := Credentials{CloudflareEmail: " e@x.com ", CloudflareAPIKey: "k", RegistrarAPIURL: "u", RegistrarAPIKey: ""}
	assert.Equal(t, "e@x.com", c.Trimmed().CloudflareEmail)
	m := c.Masked()
	assert.Equal(t, "********", m.CloudflareAPIKey)
	assert.Equal(t, "", m.RegistrarAPIKey)
}
