package bulk

import (
	"sort"
	"strings"
	"time"

	"github.com/joalafu15/Backend/internal/protodef/model"
)

// columnNationalID keys update and assign rows.
const columnNationalID = "nationalidnumber"

// fieldSetter writes one non-empty cell onto a candidate.
type fieldSetter func(c *model.CandidateDo, value string, now time.Time) error

func stringField(field func(c *model.CandidateDo) *string) fieldSetter {
	return func(c *model.CandidateDo, value string, now time.Time) error {
		*field(c) = value
		return nil
	}
}

func idField(field func(c *model.CandidateDo) *string) fieldSetter {
	return func(c *model.CandidateDo, value string, now time.Time) error {
		*field(c) = parseID(value)
		return nil
	}
}

func floatField(field func(c *model.CandidateDo) **float64) fieldSetter {
	return func(c *model.CandidateDo, value string, now time.Time) error {
		f, err := parseFloat(value)
		if err != nil {
			return err
		}
		*field(c) = &f
		return nil
	}
}

func boolField(field func(c *model.CandidateDo) **bool) fieldSetter {
	return func(c *model.CandidateDo, value string, now time.Time) error {
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		*field(c) = &b
		return nil
	}
}

func dateField(field func(c *model.CandidateDo) **time.Time) fieldSetter {
	return func(c *model.CandidateDo, value string, now time.Time) error {
		t, err := parseDate(value, time.UTC)
		if err != nil {
			return err
		}
		*field(c) = &t
		return nil
	}
}

// outcomeField sets an outcome flag and stamps it with now.
func outcomeField(field func(c *model.CandidateDo) (**bool, **time.Time)) fieldSetter {
	return func(c *model.CandidateDo, value string, now time.Time) error {
		b, err := parseBool(value)
		if err != nil {
			return err
		}
		flag, at := field(c)
		*flag, *at = &b, &now
		return nil
	}
}

// updatableColumns is the allow-list of sheet headers, normalized by headerKey, that update and
// assign may write. Gate timestamps, account links and slot bookings are not listed.
var updatableColumns = map[string]fieldSetter{
	"fullname":             stringField(func(c *model.CandidateDo) *string { return &c.FullName }),
	"phonenumber":          stringField(func(c *model.CandidateDo) *string { return &c.PhoneNumber }),
	"email":                stringField(func(c *model.CandidateDo) *string { return &c.Email }),
	"specialization":       stringField(func(c *model.CandidateDo) *string { return &c.Specialization }),
	"qualificationclass":   stringField(func(c *model.CandidateDo) *string { return &c.QualificationClass }),
	"educationalinstitute": stringField(func(c *model.CandidateDo) *string { return &c.EducationalInstitute }),
	"group":                stringField(func(c *model.CandidateDo) *string { return &c.Group }),
	"graduationdate":       dateField(func(c *model.CandidateDo) **time.Time { return &c.GraduationDate }),
	"gpa":                  floatField(func(c *model.CandidateDo) **float64 { return &c.GPA }),
	"gpamax":               floatField(func(c *model.CandidateDo) **float64 { return &c.GPAMax }),
	"qiyasscore":           floatField(func(c *model.CandidateDo) **float64 { return &c.QiyasScore }),
	"qiyassubjectscore":    floatField(func(c *model.CandidateDo) **float64 { return &c.QiyasSubjectScore }),
	"hastakenqiyas":        boolField(func(c *model.CandidateDo) **bool { return &c.HasTakenQiyas }),
	"jobpositionid":        idField(func(c *model.CandidateDo) *string { return &c.JobPositionID }),
	"administrationid":     idField(func(c *model.CandidateDo) *string { return &c.AdministrationID }),
	"qualifiedsectorid":    idField(func(c *model.CandidateDo) *string { return &c.QualifiedSectorID }),
	"qualifiedschoolid":    idField(func(c *model.CandidateDo) *string { return &c.QualifiedSchoolID }),
	"filesmatched": outcomeField(func(c *model.CandidateDo) (**bool, **time.Time) {
		return &c.FilesMatched, &c.FilesMatchedAt
	}),
	"conductedinterview": outcomeField(func(c *model.CandidateDo) (**bool, **time.Time) {
		return &c.ConductedInterview, &c.ConductedInterviewAt
	}),
	"passedinterview": outcomeField(func(c *model.CandidateDo) (**bool, **time.Time) {
		return &c.PassedInterview, &c.PassedInterviewAt
	}),
	"medicalexaminationpassed": outcomeField(func(c *model.CandidateDo) (**bool, **time.Time) {
		return &c.MedicalExaminationPassed, &c.MedicalExaminationPassedAt
	}),
}

// headerKey lower-cases a header and strips all whitespace.
func headerKey(header string) string {
	return strings.ToLower(strings.Join(strings.Fields(header), ""))
}

// columnMap resolves sheet headers to allow-listed setters.
type columnMap struct {
	nationalID int
	sector     int
	setters    map[int]fieldSetter
	keys       map[int]string
	ignored    []string
}

func mapColumns(header []string) columnMap {
	m := columnMap{
		nationalID: -1,
		sector:     -1,
		setters:    map[int]fieldSetter{},
		keys:       map[int]string{},
	}
	for i, h := range header {
		key := headerKey(h)
		switch {
		case key == "":
			continue
		case key == columnNationalID:
			if m.nationalID < 0 {
				m.nationalID = i
			}
			continue
		}
		setter, ok := updatableColumns[key]
		if !ok {
			m.ignored = append(m.ignored, strings.TrimSpace(h))
			continue
		}
		if _, seen := m.keysIndex(key); seen {
			continue
		}
		if key == "qualifiedsectorid" {
			m.sector = i
		}
		m.setters[i] = setter
		m.keys[i] = key
	}
	sort.Strings(m.ignored)
	return m
}

func (m columnMap) keysIndex(key string) (int, bool) {
	for i, k := range m.keys {
		if k == key {
			return i, true
		}
	}
	return -1, false
}

// apply writes every non-empty allow-listed cell of row onto c, in column order.
func (m columnMap) apply(c *model.CandidateDo, row []string, now time.Time) error {
	indexes := make([]int, 0, len(m.setters))
	for i := range m.setters {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	for _, i := range indexes {
		value := cell(row, i)
		if value == "" {
			continue
		}
		if err := m.setters[i](c, value, now); err != nil {
			return &columnError{column: m.keys[i], err: err}
		}
	}
	return nil
}

type columnError struct {
	column string
	err    error
}

func (e *columnError) Error() string {
	return e.column + ": " + e.err.Error()
}
