package person

import (
	"path"
	"strings"
)

// Type tags the two person categories a badge can belong to.
type Type string

const (
	TypeTeacher Type = "teacher"
	TypeStudent Type = "student"
)

// Contacts holds guardian phone numbers in notification priority order.
// Primary names the relation the school designated as primary contact,
// when it records one ("mother", "father" or "guardian").
type Contacts struct {
	Mother   string
	Father   string
	Guardian string
	Primary  string
}

// Person is the normalized projection shared by both categories. It is
// what the scan endpoint returns and what notifications are built from.
type Person struct {
	ID           int64  `json:"id"`
	Type         Type   `json:"person_type"`
	Label        string `json:"label"`
	FullName     string `json:"fullname"`
	LastName     string `json:"lastname"`
	FirstName    string `json:"firstname"`
	MiddleName   string `json:"middlename,omitempty"`
	PhotoURL     string `json:"photo_url,omitempty"`
	SID          string `json:"sid,omitempty"`
	LRN          string `json:"lrn,omitempty"`
	LevelName    string `json:"levelname,omitempty"`
	SectionName  string `json:"sectionname,omitempty"`
	LevelSection string `json:"level_section,omitempty"`
	Gender       string `json:"gender,omitempty"`

	RFID     string   `json:"-"`
	Contacts Contacts `json:"-"`
}

// Teacher is a row from the teacher directory.
type Teacher struct {
	ID         int64
	RFID       string
	LastName   string
	FirstName  string
	MiddleName string
	PhotoURL   string
}

// Student is a row from the student directory.
type Student struct {
	ID          int64
	RFID        string
	SID         string
	LRN         string
	LastName    string
	FirstName   string
	MiddleName  string
	Suffix      string
	LevelName   string
	SectionName string
	Gender      string
	PhotoURL    string

	MotherContact   string
	FatherContact   string
	GuardianContact string
	PrimaryContact  string
}

// Normalize projects a teacher record as "First Middle Last". The stored
// photo reference keeps only its file stem and is resolved against the
// employee profile asset base as a PNG.
func (t Teacher) Normalize(photoBase string) Person {
	full := strings.Join(strings.Fields(t.FirstName+" "+t.MiddleName+" "+t.LastName), " ")
	photo := ""
	if t.PhotoURL != "" && photoBase != "" {
		stem := strings.TrimSuffix(path.Base(t.PhotoURL), path.Ext(t.PhotoURL))
		photo = strings.TrimRight(photoBase, "/") + "/" + stem + ".png"
	}
	return Person{
		ID:         t.ID,
		RFID:       t.RFID,
		Type:       TypeTeacher,
		Label:      "Teacher",
		FullName:   full,
		LastName:   t.LastName,
		FirstName:  t.FirstName,
		MiddleName: t.MiddleName,
		PhotoURL:   photo,
	}
}

// Normalize projects a student record as "Last, First M. Suffix" with the
// middle name shortened to an initial.
func (s Student) Normalize() Person {
	full := s.LastName + ", " + s.FirstName
	if s.MiddleName != "" {
		full += " " + s.MiddleName[:1] + "."
	}
	if s.Suffix != "" {
		full += " " + s.Suffix
	}
	return Person{
		ID:           s.ID,
		RFID:         s.RFID,
		Type:         TypeStudent,
		Label:        "Student",
		FullName:     full,
		LastName:     s.LastName,
		FirstName:    s.FirstName,
		MiddleName:   s.MiddleName,
		PhotoURL:     s.PhotoURL,
		SID:          s.SID,
		LRN:          s.LRN,
		LevelName:    s.LevelName,
		SectionName:  s.SectionName,
		LevelSection: s.LevelName + s.SectionName,
		Gender:       s.Gender,
		Contacts: Contacts{
			Mother:   s.MotherContact,
			Father:   s.FatherContact,
			Guardian: s.GuardianContact,
			Primary:  s.PrimaryContact,
		},
	}
}
