// Parsing of "Copy as cURL" commands from the browser, used to authorise the YouTube Music proxy.
package shared

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
)

var (
	curlHeaderRe = regexp.MustCompile(`(?:-H|--header)\s+'([^']+)'|(?:-H|--header)\s+"([^"]+)"`)
	curlCookieRe = regexp.MustCompile(`(?:-b|--cookie)\s+'([^']+)'|(?:-b|--cookie)\s+"([^"]+)"`)
)

// CurlHeaders holds the headers and cookie copied from a browser request.
type CurlHeaders struct {
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a file containing a cURL command and extracts its headers.
func ParseCurlFile(path string) (*CurlHeaders, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}
	return ParseCurlCommand(string(content))
}

// ParseCurlCommand extracts headers and the cookie from a cURL command.
//
// A cookie passed with -b wins over a Cookie header.
func ParseCurlCommand(command string) (*CurlHeaders, error) {
	command = strings.ReplaceAll(command, "\\\n", " ")
	command = strings.ReplaceAll(command, "\\", "")

	result := &CurlHeaders{Headers: make(map[string]string)}
	var headerCookie string

	for _, match := range curlHeaderRe.FindAllStringSubmatch(command, -1) {
		key, value, ok := strings.Cut(firstGroup(match), ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if strings.EqualFold(key, "cookie") {
			if headerCookie == "" {
				headerCookie = value
			}
			continue
		}
		result.Headers[key] = value
	}

	if match := curlCookieRe.FindStringSubmatch(command); match != nil {
		result.Cookie = firstGroup(match)
	} else {
		result.Cookie = headerCookie
	}

	if len(result.Headers) == 0 && result.Cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}
	return result, nil
}

func firstGroup(match []string) string {
	for _, g := range match[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}

// ToHeadersRaw renders the headers as newline separated "Key: Value" lines, sorted by key,
// with the cookie last. This is the headers_raw format accepted by ytmusicapi.
func (c *CurlHeaders) ToHeadersRaw() string {
	keys := make([]string, 0, len(c.Headers))
	for key := range c.Headers {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	lines := make([]string, 0, len(keys)+1)
	for _, key := range keys {
		lines = append(lines, key+": "+c.Headers[key])
	}
	if c.Cookie != "" {
		lines = append(lines, "cookie: "+c.Cookie)
	}
	return strings.Join(lines, "\n")
}
