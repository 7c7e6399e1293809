package journey

import (
	"strings"

	"github.com/jhsobrinho/educareapp-sub009/core/child"
)

// Placeholders understood by Render.
const (
	PlaceholderName       = "{childName}"
	PlaceholderPronoun    = "{ele/ela}"
	PlaceholderPronounCap = "{Ele/Ela}"
	PlaceholderPossessive = "{dele/dela}"
	PlaceholderArticle    = "{o/a}"

	defaultSubjectName = "a criança"
)

// Subject is who the templated texts talk about.
type Subject struct {
	Name   string
	Gender string
}

func SubjectFor(c child.Child) Subject {
	return Subject{Name: c.FirstName, Gender: c.Gender}
}

func (s Subject) replacer() *strings.Replacer {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		name = defaultSubjectName
	}
	var pronoun, pronounCap, possessive, article string
	switch s.Gender {
	case child.GenderMale:
		pronoun, pronounCap, possessive, article = "ele", "Ele", "dele", "o"
	case child.GenderFemale:
		pronoun, pronounCap, possessive, article = "ela", "Ela", "dela", "a"
	default:
		pronoun, pronounCap, possessive, article = "ele(a)", "Ele(a)", "dele(a)", "o(a)"
	}
	return strings.NewReplacer(
		PlaceholderName, name,
		PlaceholderPronoun, pronoun,
		PlaceholderPronounCap, pronounCap,
		PlaceholderPossessive, possessive,
		PlaceholderArticle, article,
	)
}

// Render resolves every placeholder of tmpl for subj.
// Unknown placeholders are left as is.
func Render(tmpl string, subj Subject) string {
	if !strings.Contains(tmpl, "{") {
		return tmpl
	}
	return subj.replacer().Replace(tmpl)
}
