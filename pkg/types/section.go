package types

// Section is one of the four date buckets a task falls into relative to
// "now". Sections are derived on every read and never persisted.
type Section string

// Sections in display order.
const (
	SectionOverdue   Section = "overdue"
	SectionToday     Section = "today"
	SectionUpcoming  Section = "upcoming"
	SectionNoDueDate Section = "no_due_date"
)

var sectionTitles = map[Section]string{
	SectionOverdue:   "Overdue",
	SectionToday:     "Today",
	SectionUpcoming:  "Upcoming",
	SectionNoDueDate: "No Due Date",
}

// Sections returns every section in display order.
func Sections() []Section {
	return []Section{SectionOverdue, SectionToday, SectionUpcoming, SectionNoDueDate}
}

// Title returns the heading shown for the section.
func (s Section) Title() string {
	if t, ok := sectionTitles[s]; ok {
		return t
	}
	return string(s)
}
