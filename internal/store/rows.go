package store

import (
	"database/sql"
	"fmt"

	"github.com/SeelanGov/thandi/internal/model"
)

// chunkColumns is the shared column list of the SQL backends
const chunkColumns = "id, text, source, category, career_id, career_name, salary_entry, salary_mid, salary_senior, priority"

// attributeColumn maps an attribute name to its SQL column
func attributeColumn(name string) (string, error) {
	switch name {
	case model.AttrCareerID:
		return "career_id", nil
	case model.AttrCategory:
		return "category", nil
	case model.AttrSource:
		return "source", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedAttribute, name)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanChunk reads chunkColumns plus any extra trailing destinations
func scanChunk(row rowScanner, extra ...any) (model.Chunk, error) {
	var (
		c          model.Chunk
		source     sql.NullString
		category   sql.NullString
		careerID   sql.NullString
		careerName sql.NullString
		entry      sql.NullString
		mid        sql.NullString
		senior     sql.NullString
	)
	dest := []any{&c.ID, &c.Text, &source, &category, &careerID, &careerName, &entry, &mid, &senior, &c.Attributes.Priority}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return model.Chunk{}, err
	}
	c.Source = source.String
	c.Category = category.String
	c.Attributes.CareerID = careerID.String
	c.Attributes.CareerName = careerName.String
	c.Attributes.SalaryEntry = entry.String
	c.Attributes.SalaryMid = mid.String
	c.Attributes.SalarySenior = senior.String
	return c, nil
}

func chunkArgs(c model.Chunk) []any {
	a := c.Attributes
	return []any{c.ID, c.Text, c.Source, c.Category, a.CareerID, a.CareerName, a.SalaryEntry, a.SalaryMid, a.SalarySenior, a.Priority}
}
