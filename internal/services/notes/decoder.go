package notes

import (
	"errors"
	"sort"

	"github.com/ternarybob/rednote/pkg/models"
)

// ErrMissingNoteDetail means a state parsed but carried no note entries,
// usually because risk control served a thinned-out page.
var ErrMissingNoteDetail = errors.New("state contains no note detail")

// defaultTitle is the upstream placeholder for notes without a title.
const defaultTitle = "无标题"

// DecodeSummary projects a raw page state onto the output schema. The entry
// is selected by the state's own firstNoteId when that key exists in the
// detail map, otherwise by the lexically first key so repeated scrapes of
// the same page decode the same entry. The selected note ID is returned
// alongside the summary.
func DecodeSummary(state models.RawState, rawURL string) (*models.NoteSummary, string, error) {
	detail := state.NoteDetail()
	if len(detail) == 0 {
		return nil, "", ErrMissingNoteDetail
	}

	id := state.FirstNoteID()
	if _, ok := detail[id]; id == "" || !ok {
		keys := make([]string, 0, len(detail))
		for k := range detail {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		id = keys[0]
	}

	entry, _ := detail[id].(map[string]interface{})
	note, _ := entry["note"].(map[string]interface{})

	summary := &models.NoteSummary{
		Title:  stringField(note, "title", defaultTitle),
		Desc:   stringField(note, "desc", ""),
		RawURL: rawURL,
	}

	if t, ok := note["type"].(string); ok {
		summary.Type = &t
	}
	if user, ok := note["user"].(map[string]interface{}); ok {
		if nick, ok := user["nickname"].(string); ok {
			summary.User = &nick
		}
	}
	if images, ok := note["imageList"].([]interface{}); ok {
		for _, item := range images {
			img, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			if u, ok := img["urlDefault"].(string); ok && u != "" {
				summary.ImageList = append(summary.ImageList, u)
			}
		}
	}

	return summary, id, nil
}

// stringField returns fallback only when the key is absent or not a string;
// an explicit empty value stays empty.
func stringField(m map[string]interface{}, key, fallback string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return fallback
}
