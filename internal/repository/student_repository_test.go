package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var studentColumnNames = []string{"id", "school_id", "full_name", "cpf", "rg", "birth_date", "gender", "nationality", "birthplace",
	"email", "phone", "address", "city", "state", "zip_code", "blood_type", "allergies", "medications", "special_needs",
	"health_notes", "created_at"}

func TestStudentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	birth := time.Date(2008, 3, 14, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(studentColumnNames).
		AddRow("stu-1", "school-1", "Ana Souza", "123.456.789-00", "", birth, "F", "Brasileira", "Campinas",
			"", "", "Rua A, 10", "Campinas", "SP", "13000-000", "O+", "", "", "", "", time.Now())
	mock.ExpectQuery("FROM students s WHERE s.school_id = \\$1 AND s.id = \\$2 AND s.deleted_at IS NULL").
		WithArgs("school-1", "stu-1").
		WillReturnRows(rows)

	student, err := repo.FindByID(context.Background(), "school-1", "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", student.FullName)
	require.NotNil(t, student.BirthDate)
	assert.True(t, birth.Equal(*student.BirthDate))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByIDOtherSchool(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("FROM students s").
		WithArgs("school-2", "stu-1").
		WillReturnRows(sqlmock.NewRows(studentColumnNames))

	_, err := repo.FindByID(context.Background(), "school-2", "stu-1")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestStudentRepositoryListGuardians(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "full_name", "relationship", "cpf", "phone", "email", "is_primary"}).
		AddRow("g-2", "stu-1", "Carlos Souza", "Pai", "", "", "", true).
		AddRow("g-1", "stu-1", "Paula Souza", "Mãe", "", "(19) 99999-0000", "", false)
	mock.ExpectQuery("ORDER BY g.is_primary DESC, g.full_name").
		WithArgs("school-1", "stu-1").
		WillReturnRows(rows)

	guardians, err := repo.ListGuardians(context.Background(), "school-1", "stu-1")
	require.NoError(t, err)
	require.Len(t, guardians, 2)
	assert.True(t, guardians[0].IsPrimary)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSchoolRepository(db)

	mock.ExpectQuery("FROM schools WHERE id = \\$1").
		WithArgs("school-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "director_name", "logo_url", "city", "state"}).
			AddRow("school-1", "Escola Estadual Aurora", "Maria Souza", "", "Campinas", "SP"))

	school, err := repo.FindByID(context.Background(), "school-1")
	require.NoError(t, err)
	assert.Equal(t, "Maria Souza", school.DirectorName)
	assert.Empty(t, school.LogoURL)
}

func TestAcademicRepositoryListClassSubjects(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAcademicRepository(db)

	mock.ExpectQuery("FROM class_subjects cs").
		WithArgs("school-1", "class-1").
		WillReturnRows(sqlmock.NewRows([]string{"subject_id", "subject_name", "teacher_name", "workload"}).
			AddRow("sub-mat", "Matemática", "João Prado", 160).
			AddRow("sub-por", "Português", "", 160))

	subjects, err := repo.ListClassSubjects(context.Background(), "school-1", "class-1")
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "Matemática", subjects[0].SubjectName)

	mock.ExpectQuery("FROM periods").
		WithArgs("school-1", "year-1").
		WillReturnError(errors.New("connection refused"))
	_, err = repo.ListPeriods(context.Background(), "school-1", "year-1")
	assert.ErrorContains(t, err, "list periods")
}
