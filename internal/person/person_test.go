package person

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTeacherNormalize(t *testing.T) {
	t.Run("full name with middle name", func(t *testing.T) {
		p := Teacher{ID: 1, RFID: "T-1", FirstName: "Jose", MiddleName: "P", LastName: "Rizal"}.Normalize("")
		assert.Equal(t, "Jose P Rizal", p.FullName)
		assert.Equal(t, TypeTeacher, p.Type)
		assert.Equal(t, "Teacher", p.Label)
		assert.Equal(t, "T-1", p.RFID)
	})

	t.Run("missing middle name leaves no double space", func(t *testing.T) {
		p := Teacher{FirstName: "Jose", LastName: "Rizal"}.Normalize("")
		assert.Equal(t, "Jose Rizal", p.FullName)
	})

	t.Run("photo stem resolved against asset base as png", func(t *testing.T) {
		p := Teacher{PhotoURL: "uploads/jrizal.jpg"}.Normalize("https://cdn.school.test/employeeprofile/2020-2021")
		assert.Equal(t, "https://cdn.school.test/employeeprofile/2020-2021/jrizal.png", p.PhotoURL)
	})

	t.Run("no photo base disables resolution", func(t *testing.T) {
		p := Teacher{PhotoURL: "uploads/jrizal.jpg"}.Normalize("")
		assert.Empty(t, p.PhotoURL)
	})
}

func TestStudentNormalize(t *testing.T) {
	s := Student{
		ID: 2, RFID: "S-9", SID: "2026-0042", LRN: "123456789012",
		LastName: "Santos", FirstName: "Maria", MiddleName: "Clara", Suffix: "Jr",
		LevelName: "Grade 7", SectionName: "Sampaguita", Gender: "F",
		MotherContact: "0917", FatherContact: "0918", GuardianContact: "0919",
		PrimaryContact: "father",
	}
	p := s.Normalize()

	assert.Equal(t, "Santos, Maria C. Jr", p.FullName)
	assert.Equal(t, TypeStudent, p.Type)
	assert.Equal(t, "Grade 7Sampaguita", p.LevelSection)
	assert.Equal(t, "S-9", p.RFID)
	assert.Equal(t, Contacts{Mother: "0917", Father: "0918", Guardian: "0919", Primary: "father"}, p.Contacts)

	t.Run("no middle name or suffix", func(t *testing.T) {
		p := Student{LastName: "Santos", FirstName: "Maria"}.Normalize()
		assert.Equal(t, "Santos, Maria", p.FullName)
	})
}
