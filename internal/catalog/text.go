package catalog

import (
	"fmt"
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	textcatalog "golang.org/x/text/message/catalog"
)

// builtinText holds translations for the computed info templates. Item
// names and static texts are translated by the document itself.
var builtinText = map[language.Tag]map[string]string{
	language.TraditionalChinese: {
		msgFamilyOutput: "每秒產生%d金幣",
		msgStock:        "花費 %d 金幣，%s +%d\n目前：%s %d",
		msgStaffing:     "花費 %d 金幣，員工 +1\n目前：%d/%d",
		msgExpansion:    "花費 %d 金幣\n座位：%d → %d\n料理類別：%d → %d",
		msgSkillBonus:   "現在學習可增加每秒%d金幣",
	},
}

// Localizer hands out printers for the languages a catalog was built with.
// English is the key language and the fallback.
type Localizer struct {
	cat     *textcatalog.Builder
	tags    []language.Tag
	matcher language.Matcher
}

func newLocalizer(extra map[string]map[string]string) (*Localizer, error) {
	b := textcatalog.NewBuilder(textcatalog.Fallback(language.English))
	tags := []language.Tag{language.English}
	seen := map[language.Tag]bool{language.English: true}
	add := func(tag language.Tag) {
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}

	for tag, msgs := range builtinText {
		add(tag)
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("catalog: text %q: %w", key, err)
			}
		}
	}
	langs := make([]string, 0, len(extra))
	for lang := range extra {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		msgs := extra[lang]
		tag, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("%w: translation language %q: %v", ErrInvalidDocument, lang, err)
		}
		add(tag)
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("catalog: text %q: %w", key, err)
			}
		}
	}

	return &Localizer{cat: b, tags: tags, matcher: language.NewMatcher(tags)}, nil
}

// Printer returns a printer for the best supported match of lang, which may
// be a BCP 47 tag or an Accept-Language header value.
func (l *Localizer) Printer(lang string) *message.Printer {
	return message.NewPrinter(l.Match(lang), message.Catalog(l.cat))
}

// Match resolves lang to one of the supported tags.
func (l *Localizer) Match(lang string) language.Tag {
	if lang == "" {
		return l.tags[0]
	}
	desired, _, err := language.ParseAcceptLanguage(lang)
	if err != nil || len(desired) == 0 {
		return l.tags[0]
	}
	_, idx, conf := l.matcher.Match(desired...)
	if conf == language.No {
		return l.tags[0]
	}
	return l.tags[idx]
}

// Languages lists the supported tags, English first.
func (l *Localizer) Languages() []string {
	out := make([]string, len(l.tags))
	for i, t := range l.tags {
		out[i] = t.String()
	}
	return out
}
