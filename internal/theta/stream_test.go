package theta

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanPageYieldsItemsAndHeader(t *testing.T) {
	page := `{
		"header": {"latency_ms": 7, "format": ["ms_of_day"], "next_page": "http://x/2"},
		"response": [{"a":1},{"a":2},{"a":3}]
	}`
	var items []string
	hdr, err := scanPage(strings.NewReader(page), "response", func(raw json.RawMessage) error {
		items = append(items, string(raw))
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.JSONEq(t, `{"a":2}`, items[1])

	var h Header
	require.NoError(t, json.Unmarshal(hdr, &h))
	assert.Equal(t, 7, h.LatencyMS)
	assert.Equal(t, "http://x/2", h.NextPage)
}

func TestScanPageSkipsUnknownKeysAndNullResponse(t *testing.T) {
	page := `{"extra": {"deep": [1,2,3]}, "response": null, "header": {"latency_ms": 1}}`
	count := 0
	hdr, err := scanPage(strings.NewReader(page), "response", func(json.RawMessage) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NotEmpty(t, hdr)
}

func TestScanPageRejectsNonObjectEnvelope(t *testing.T) {
	_, err := scanPage(strings.NewReader(`[1,2,3]`), "response", func(json.RawMessage) error { return nil })
	require.Error(t, err)
}

func TestNestedStringDotPath(t *testing.T) {
	m := map[string]any{
		"header": map[string]any{
			"next_page": "http://x/2",
			"nested":    map[string]any{"deep": "v"},
		},
	}
	assert.Equal(t, "http://x/2", nestedString(m, "header.next_page"))
	assert.Equal(t, "v", nestedString(m, "header.nested.deep"))
	assert.Empty(t, nestedString(m, "header.missing"))
	assert.Empty(t, nestedString(m, "header.next_page.too_far"))
	assert.Empty(t, nestedString(m, "absent.next_page"))
}

func TestNextPageSentinels(t *testing.T) {
	for _, v := range []string{"null", "None", "", "  "} {
		raw, _ := json.Marshal(map[string]any{"next_page": v})
		assert.Empty(t, nextPageFrom(raw, nextPagePath), "sentinel %q", v)
	}
	raw, _ := json.Marshal(map[string]any{"next_page": "http://x/2"})
	assert.Equal(t, "http://x/2", nextPageFrom(raw, nextPagePath))
	assert.Empty(t, nextPageFrom(nil, nextPagePath))
	assert.Empty(t, nextPageFrom(json.RawMessage(`not json`), nextPagePath))
}
