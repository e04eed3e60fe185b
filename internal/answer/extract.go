// Package answer reads the answer text and cited source titles out of a
// question-answering API response without assuming a fixed schema.
package answer

import (
	"strings"

	"github.com/tidwall/gjson"
)

const (
	answerPath      = "answer.answer"
	resourcesPath   = "answer.find_result.resources"
	bestMatchesPath = "answer.find_result.best_matches"
)

// Text returns the trimmed answer.answer string. ok is false when the path is
// missing, not a string, or blank.
func Text(resp gjson.Result) (text string, ok bool) {
	v := resp.Get(answerPath)
	if v.Type != gjson.String {
		return "", false
	}
	text = strings.TrimSpace(v.Str)
	return text, text != ""
}

// SourceTitles returns up to limit distinct source titles. Titles of resources
// referenced by best_matches come first, in match order; the remaining
// resources follow in document order.
func SourceTitles(resp gjson.Result, limit int) []string {
	if limit <= 0 {
		return nil
	}

	ids, byID := resourceTitles(resp.Get(resourcesPath))
	if len(ids) == 0 {
		return nil
	}

	titles := make([]string, 0, min(limit, len(ids)))
	seen := make(map[string]bool, len(ids))
	add := func(title string) bool {
		if !seen[title] {
			seen[title] = true
			titles = append(titles, title)
		}
		return len(titles) < limit
	}

	matches := resp.Get(bestMatchesPath)
	if matches.IsArray() {
		for _, m := range matches.Array() {
			if m.Type != gjson.String {
				continue
			}
			id, _, _ := strings.Cut(m.Str, "/")
			title, found := byID[id]
			if !found {
				continue
			}
			if !add(title) {
				return titles
			}
		}
	}

	for _, id := range ids {
		if !add(byID[id]) {
			break
		}
	}
	return titles
}

// resourceTitles maps resource ids to usable titles, keeping document order.
func resourceTitles(resources gjson.Result) ([]string, map[string]string) {
	if !resources.IsObject() {
		return nil, nil
	}
	var ids []string
	byID := make(map[string]string)
	resources.ForEach(func(key, value gjson.Result) bool {
		title := value.Get("title")
		if !value.IsObject() || title.Type != gjson.String {
			return true
		}
		t := strings.TrimSpace(title.Str)
		if t == "" {
			return true
		}
		if _, dup := byID[key.String()]; !dup {
			ids = append(ids, key.String())
		}
		byID[key.String()] = t
		return true
	})
	return ids, byID
}
