package utils

import (
	"encoding/json"
	"strings"
)

// URLsToString converts []string to a JSON string column value.
func URLsToString(urls []string) string {
	if len(urls) == 0 {
		return "[]"
	}
	data, _ := json.Marshal(urls)
	return string(data)
}

// StringToURLs converts a stored column value back to []string.
func StringToURLs(s string) []string {
	if s == "" || s == "[]" {
		return []string{}
	}
	var urls []string
	if err := json.Unmarshal([]byte(s), &urls); err != nil {
		// legacy comma separated values
		return strings.Split(s, ",")
	}
	return urls
}
