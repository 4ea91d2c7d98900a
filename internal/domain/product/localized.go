package product

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/example/storefront/internal/session"
)

// LocalizedText is either a plain string or a set of per-locale values
// (`"Phone"` or `{"bg": "Телефон", "en": "Phone"}` on the wire).
type LocalizedText struct {
	text   string
	values map[string]string
}

func Text(s string) LocalizedText {
	return LocalizedText{text: s}
}

func Translations(values map[string]string) LocalizedText {
	cp := make(map[string]string, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return LocalizedText{values: cp}
}

func (t LocalizedText) IsTranslated() bool { return t.values != nil }

// Resolve picks the value for locale, then the default locale, then any
// non-empty value.
func (t LocalizedText) Resolve(locale string) string {
	if t.values == nil {
		return t.text
	}
	if v := t.values[locale]; v != "" {
		return v
	}
	if v := t.values[session.DefaultLocale]; v != "" {
		return v
	}
	keys := make([]string, 0, len(t.values))
	for k := range t.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := t.values[k]; v != "" {
			return v
		}
	}
	return ""
}

// Localize collapses t to a plain string in locale
func (t LocalizedText) Localize(locale string) LocalizedText {
	return Text(t.Resolve(locale))
}

func (t LocalizedText) String() string {
	return t.Resolve(session.DefaultLocale)
}

func (t LocalizedText) MarshalJSON() ([]byte, error) {
	if t.values != nil {
		return json.Marshal(t.values)
	}
	return json.Marshal(t.text)
}

func (t *LocalizedText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = LocalizedText{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	case '{':
		var raw map[string]*string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		values := make(map[string]string, len(raw))
		for k, v := range raw {
			if v != nil {
				values[k] = *v
			}
		}
		*t = LocalizedText{values: values}
		return nil
	}
	return fmt.Errorf("localized text must be a string or an object, got %s", data)
}
