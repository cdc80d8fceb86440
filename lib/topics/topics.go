package topics

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	ClassPrefix   = "class"
	TeacherPrefix = "teacher"
)

// MalformedLabelError is a class label that expanded to zero classes.
type MalformedLabelError struct {
	Label string
}

func (e *MalformedLabelError) Error() string {
	return fmt.Sprintf("class label %q does not denote any class", e.Label)
}

type scanState int

const (
	idle scanState = iota
	accumulatingDigits
	accumulatingLetterGrade
)

// scanner splits merged class labels, it is single use.
type scanner struct {
	state  scanState
	buffer []rune
	// emitted is set once the buffer produced a class, the next digit
	// starts a fresh grade.
	emitted bool

	seen map[string]bool
	out  []string
}

func (s *scanner) emit(class string) {
	if s.seen[class] {
		return
	}
	s.seen[class] = true
	s.out = append(s.out, class)
}

func (s *scanner) hasDigit() bool {
	for _, r := range s.buffer {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// flushLetterGrade emits a pending label like "Q2" that was not followed
// by a lowercase suffix.
func (s *scanner) flushLetterGrade() {
	if s.state == accumulatingLetterGrade && !s.emitted && s.hasDigit() {
		s.emit(string(s.buffer))
		s.emitted = true
	}
}

func (s *scanner) step(r rune) {
	switch {
	case unicode.IsDigit(r):
		switch {
		case s.state == accumulatingLetterGrade:
			s.buffer = append(s.buffer, r)
			s.emitted = false
		case s.state == accumulatingDigits && !s.emitted:
			s.buffer = append(s.buffer, r)
		default:
			s.buffer = []rune{r}
			s.state = accumulatingDigits
			s.emitted = false
		}
	case unicode.IsLower(r):
		if len(s.buffer) > 0 {
			s.emit(string(s.buffer) + string(r))
			s.emitted = true
		}
	case unicode.IsUpper(r):
		s.flushLetterGrade()
		s.buffer = []rune{r}
		s.state = accumulatingLetterGrade
		s.emitted = false
	default:
		s.flushLetterGrade()
		s.buffer = nil
		s.state = idle
		s.emitted = true
	}
}

func isAtomic(label []rune) bool {
	if len(label) <= 2 {
		return true
	}
	return len(label) == 3 && unicode.IsDigit(label[1])
}

// SplitClasses expands a merged class label into the individual classes
// it denotes in first seen order, ie. "5ab" -> 5a, 5b and
// "E2Q2Q4" -> E2, Q2, Q4.
func SplitClasses(label string) []string {
	runes := []rune(strings.TrimSpace(label))
	if len(runes) == 0 {
		return nil
	}
	if isAtomic(runes) {
		return []string{string(runes)}
	}

	s := &scanner{seen: map[string]bool{}}
	for _, r := range runes {
		s.step(r)
	}
	s.flushLetterGrade()
	return s.out
}

// Expander turns class labels and teachers into notification topics.
type Expander struct {
	// Namespace is prepended to every topic when set.
	Namespace string
}

func (e Expander) topic(kind, name string) string {
	if e.Namespace == "" {
		return fmt.Sprintf("%s.%s", kind, name)
	}
	return fmt.Sprintf("%s.%s.%s", e.Namespace, kind, name)
}

// Expand returns the class topics of a label, a label denoting no class
// is a *MalformedLabelError.
func (e Expander) Expand(label string) ([]string, error) {
	classes := SplitClasses(label)
	if len(classes) == 0 {
		return nil, &MalformedLabelError{Label: label}
	}
	out := make([]string, len(classes))
	for i, c := range classes {
		out[i] = e.topic(ClassPrefix, c)
	}
	return out, nil
}

func (e Expander) Teacher(teacher string) string {
	return e.topic(TeacherPrefix, teacher)
}

// ForRecord returns the class topics of className followed by the
// teacher topic. The teacher topic is returned even when the label is
// malformed.
func (e Expander) ForRecord(className, originalTeacher string) ([]string, error) {
	classes, err := e.Expand(className)
	return append(classes, e.Teacher(originalTeacher)), err
}

// Expand uses an Expander without a namespace.
func Expand(label string) ([]string, error) {
	return Expander{}.Expand(label)
}
