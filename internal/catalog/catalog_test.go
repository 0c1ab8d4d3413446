package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindExam(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"Hemograma completo", "Hemograma completo"},
		{"hemograma", "Hemograma completo"},
		{"HEMOGRAMA COMPLETO DETALHADO", "Hemograma completo"},
		{"eco do coracao", "Ecocardiograma"},
		{"ecocardiografia", "Ecocardiograma"},
		{"rx torax", "Raio-X tórax"},
		{"ácido úrico", "Ácido úrico"},
		{"acido urico", "Ácido úrico"},
		{"eda", "Endoscopia digestiva alta"},
	}

	for _, tt := range tests {
		exam, ok := FindExam(tt.query)
		require.True(t, ok, "expected a match for %q", tt.query)
		assert.Equal(t, tt.want, exam.Name)
	}
}

func TestFindExamNotFound(t *testing.T) {
	_, ok := FindExam("xyz-not-real")
	assert.False(t, ok)
}

func TestFindExamFirstInTableOrder(t *testing.T) {
	// "Testosterona" matches both total and livre; table order decides.
	exam, ok := FindExam("testosterona")
	require.True(t, ok)
	assert.Equal(t, "Testosterona total", exam.Name)
}

func TestFindDoctorsBySpecialty(t *testing.T) {
	docs := FindDoctorsBySpecialty("cardiologia")
	require.Len(t, docs, 1)
	assert.Equal(t, "Dr. Rafael Menezes", docs[0].Name)

	docs = FindDoctorsBySpecialty("GINECOLOGIA")
	require.Len(t, docs, 1)
	assert.Equal(t, "Dra. Larissa Coelho", docs[0].Name)

	assert.Empty(t, FindDoctorsBySpecialty("nefrologia"))
}

func TestCatalogLoaded(t *testing.T) {
	assert.Len(t, Doctors(), 10)
	assert.Len(t, Exams(), 55)
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "R$ 45,00", FormatPrice(45))
	assert.Equal(t, "R$ 690,00", FormatPrice(690))
	assert.Equal(t, "R$ 1.350,00", FormatPrice(1350))
}
