package catalog

import (
	_ "embed"
	"fmt"
	"log"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"gopkg.in/yaml.v2"
)

// Static lookup tables for the clinic's doctors and exams. Matching is a
// bidirectional substring test over lower-cased, diacritic-stripped strings;
// no ranking beyond table order and no edit-distance matching.

type ScheduleEntry struct {
	Weekday string      `yaml:"weekday"`
	Ranges  [][2]string `yaml:"ranges"`
}

type Doctor struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Specialty   string          `yaml:"specialty"`
	SlotMinutes int             `yaml:"slot_minutes"`
	Schedule    []ScheduleEntry `yaml:"schedule"`
}

type Exam struct {
	Name     string   `yaml:"name"`
	Price    int      `yaml:"price"`
	Synonyms []string `yaml:"synonyms"`
}

//go:embed catalog.yaml
var catalogYAML []byte

var (
	doctors []Doctor
	exams   []Exam
)

func init() {
	var raw struct {
		Doctors []Doctor `yaml:"doctors"`
		Exams   []Exam   `yaml:"exams"`
	}
	if err := yaml.Unmarshal(catalogYAML, &raw); err != nil {
		log.Fatalf("error parsing embedded catalog: %v", err)
	}
	doctors = raw.Doctors
	exams = raw.Exams
}

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func normalize(s string) string {
	out, _, err := transform.String(stripAccents, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

func matches(query, candidate string) bool {
	return strings.Contains(candidate, query) || strings.Contains(query, candidate)
}

// FindExam returns the first exam in table order whose name or any synonym
// matches the query. The boolean reports whether a match was found.
func FindExam(query string) (Exam, bool) {
	q := normalize(query)
	for _, exam := range exams {
		if matches(q, normalize(exam.Name)) {
			return exam, true
		}
		for _, syn := range exam.Synonyms {
			if matches(q, normalize(syn)) {
				return exam, true
			}
		}
	}
	return Exam{}, false
}

// FindDoctorsBySpecialty returns every doctor whose specialty matches the
// query, in table order. The result may be empty.
func FindDoctorsBySpecialty(query string) []Doctor {
	q := normalize(query)
	var found []Doctor
	for _, doc := range doctors {
		if matches(q, normalize(doc.Specialty)) {
			found = append(found, doc)
		}
	}
	return found
}

// Doctors returns the full roster in table order.
func Doctors() []Doctor {
	return doctors
}

// Exams returns the full price list in table order.
func Exams() []Exam {
	return exams
}

// FormatPrice renders a price in reais, e.g. "R$ 1.350,00".
func FormatPrice(price int) string {
	s := fmt.Sprintf("%d", price)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteRune('.')
		}
		b.WriteRune(r)
	}
	return "R$ " + b.String() + ",00"
}
