package service

import (
	"encoding/json"
	"log"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/fulldump/apitest"
)

// Save writes an acceptance exchange as a markdown example when
// API_EXAMPLES_PATH is set.
func Save(response *apitest.Response, title, description string) {

	examplesPath := os.Getenv("API_EXAMPLES_PATH")
	if examplesPath == "" {
		return
	}

	request := response.Request

	query := request.URL.RawQuery
	if query != "" {
		query = "?" + query
	}

	s := &strings.Builder{}
	s.WriteString("# " + title + "\n")
	s.WriteString(cropTabs(description) + "\n")

	s.WriteString("Curl example:\n\n```sh\ncurl ")
	if request.Method != "GET" {
		s.WriteString("-X " + request.Method + " ")
	}
	s.WriteString(`"https://example.com` + request.URL.Path + query + `"`)
	for _, k := range sortedHeaders(request.Header) {
		for _, v := range request.Header[k] {
			s.WriteString(" \\\n-H \"" + k + ": " + v + "\"")
		}
	}
	if body := formatJSON(response.BodyRequestString()); body != "" {
		s.WriteString(" \\\n-d '" + body + "'")
	}
	s.WriteString("\n```\n\n\n")

	s.WriteString("HTTP request/response example:\n\n```http\n")
	s.WriteString(request.Method + " " + request.URL.Path + query + " " + request.Proto + "\n")
	s.WriteString("Host: example.com\n")
	for _, k := range sortedHeaders(request.Header) {
		for _, v := range request.Header[k] {
			s.WriteString(k + ": " + v + "\n")
		}
	}
	s.WriteString("\n" + formatJSON(response.BodyRequestString()) + "\n\n")

	s.WriteString(response.Proto + " " + response.Status + "\n")
	for _, k := range sortedHeaders(response.Header) {
		if k == "Date" {
			s.WriteString("Date: Mon, 15 Aug 2022 02:08:13 GMT\n")
			continue
		}
		for _, v := range response.Header[k] {
			s.WriteString(k + ": " + v + "\n")
		}
	}
	s.WriteString("\n" + formatJSON(response.BodyString()) + "\n```\n\n\n")

	filename := strings.ReplaceAll(strings.ToLower(title), " ", "_") + ".md"
	p := path.Join(examplesPath, path.Clean(filename))
	log.Println("Saving", p)
	err := os.WriteFile(p, []byte(s.String()), 0666)
	if err != nil {
		log.Println("Saving err:", err)
	}
}

func sortedHeaders(h map[string][]string) []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatJSON indents a JSON body; anything else, NDJSON included, is left
// as it is.
func formatJSON(body string) string {

	var i interface{}
	err := json.Unmarshal([]byte(body), &i)
	if err != nil {
		return body
	}

	bytes, err := json.MarshalIndent(i, "", "    ")
	if err != nil {
		return body
	}

	return string(bytes)
}

// cropTabs removes the indentation shared by the lines of a raw string
// literal.
func cropTabs(d string) string {
	lines := strings.Split(d, "\n")

	minTabs := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		tabs := len(line) - len(strings.TrimLeft(line, "\t"))
		if minTabs < 0 || tabs < minTabs {
			minTabs = tabs
		}
	}
	if minTabs <= 0 {
		return d
	}

	prefix := strings.Repeat("\t", minTabs)
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}

	return strings.Join(lines, "\n")
}
