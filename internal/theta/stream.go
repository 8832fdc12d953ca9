package theta

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// scanPage walks one page envelope token by token, invoking onItem for every
// element of the array under itemKey without materializing the whole payload.
// The raw header object is returned for pagination. Unknown top-level keys
// are skipped.
func scanPage(r io.Reader, itemKey string, onItem func(json.RawMessage) error) (json.RawMessage, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read page envelope: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("page envelope is not a JSON object (got %v)", tok)
	}

	var headerRaw json.RawMessage
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read envelope key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected envelope token %v", keyTok)
		}

		switch key {
		case "header":
			if err := dec.Decode(&headerRaw); err != nil {
				return nil, fmt.Errorf("decode header: %w", err)
			}
		case itemKey:
			if err := scanItems(dec, onItem); err != nil {
				return nil, err
			}
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("skip envelope key %q: %w", key, err)
			}
		}
	}
	return headerRaw, nil
}

func scanItems(dec *json.Decoder, onItem func(json.RawMessage) error) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read item array: %w", err)
	}
	if tok == nil {
		// response: null is an empty dataset
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return fmt.Errorf("items are not a JSON array (got %v)", tok)
	}
	for dec.More() {
		var item json.RawMessage
		if err := dec.Decode(&item); err != nil {
			return fmt.Errorf("decode item: %w", err)
		}
		if err := onItem(item); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("close item array: %w", err)
	}
	return nil
}

// nestedString walks a dot-separated path through nested JSON mappings and
// returns the string at the leaf, or "" when any segment is absent or the
// leaf is not a string.
func nestedString(m map[string]any, path string) string {
	var cur any = m
	for _, part := range strings.Split(path, ".") {
		mm, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		if cur, ok = mm[part]; !ok {
			return ""
		}
	}
	s, _ := cur.(string)
	return s
}

// nextPageFrom resolves the next-page locator from a raw page header using
// the configured dot path. Sentinel values meaning "no next page" collapse
// to the empty string.
func nextPageFrom(headerRaw json.RawMessage, path string) string {
	if len(headerRaw) == 0 {
		return ""
	}
	var hdr map[string]any
	if err := json.Unmarshal(headerRaw, &hdr); err != nil {
		return ""
	}
	// The path is rooted at the page envelope; the header object is the
	// only metadata a page carries.
	root := map[string]any{"header": hdr}
	next := nestedString(root, path)
	switch strings.ToLower(strings.TrimSpace(next)) {
	case "", "null", "none":
		return ""
	}
	return next
}

// hasNoDataFragment reports whether a response body carries the terminal's
// fixed no-data text.
func hasNoDataFragment(body []byte) bool {
	return bytes.Contains(body, []byte(noDataFragment))
}
