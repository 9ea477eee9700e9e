package prismic

import (
	"encoding/json"
	"strings"
)

// SelectFields keeps the data keys named by fetch entries of the form
// "<type>.<field>". Entries for other types are ignored and an empty fetch
// list keeps everything.
func SelectFields(data json.RawMessage, docType string, fetch []string) (json.RawMessage, error) {
	if len(fetch) == 0 || len(data) == 0 {
		return data, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}

	selected := make(map[string]json.RawMessage, len(fetch))
	for _, f := range fetch {
		name, ok := strings.CutPrefix(f, docType+".")
		if !ok {
			continue
		}
		if v, found := fields[name]; found {
			selected[name] = v
		}
	}

	return json.Marshal(selected)
}
