package schema

import "golang.org/x/text/language"

// localizedColumn picks a column for the locale.
// Lookup order: exact tag, base language, default locale, locale-neutral ("").
func localizedColumn(cols map[string]string, locale, defaultLocale string) (string, bool) {
	if len(cols) == 0 {
		return "", false
	}
	if col, ok := cols[locale]; ok {
		return col, true
	}
	if tag, err := language.Parse(locale); err == nil {
		if base, conf := tag.Base(); conf != language.No {
			if col, ok := cols[base.String()]; ok {
				return col, true
			}
		}
	}
	if col, ok := cols[defaultLocale]; ok {
		return col, true
	}
	col, ok := cols[""]
	return col, ok
}
