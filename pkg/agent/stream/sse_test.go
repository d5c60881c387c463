package stream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-analytics-be/pkg/agent/planner"
)

func TestWriteSSEFraming(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	require.NoError(t, WriteSSE(w, Start()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "data: "), "frame must start with 'data: '")
	assert.True(t, len(out) > 2 && out[len(out)-2:] == "\n\n", "frame must end with a blank line")

	var ev struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal([]byte(out[len("data: "):len(out)-2]), &ev))
	assert.Equal(t, "start", ev.Type)
	assert.Equal(t, "Request accepted", ev.Content)
}

func TestWriteSSEOmitsEmptyData(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	require.NoError(t, WriteSSE(w, Complete()))
	assert.NotContains(t, buf.String(), `"data"`, "payload-less events must omit the data key")
}

func TestWriteSSEPlanPayload(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	ev := Plan([]planner.PlanItem{{ProductID: "top10", Reason: "ranking requested"}})
	require.NoError(t, WriteSSE(w, ev))

	out := buf.String()
	var decoded struct {
		Type string `json:"type"`
		Data struct {
			Plan []struct {
				ProductID string `json:"productId"`
				Reason    string `json:"reason"`
			} `json:"plan"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out[len("data: "):len(out)-2]), &decoded))
	assert.Equal(t, "plan", decoded.Type)
	require.Len(t, decoded.Data.Plan, 1)
	assert.Equal(t, "top10", decoded.Data.Plan[0].ProductID)
}
