package events

import (
	"fmt"

	"github.com/learnledger/indexer/internal/models"
)

var categories = []models.CourseCategory{
	models.CategoryDevelopment,
	models.CategoryDesign,
	models.CategoryBusiness,
	models.CategoryMarketing,
	models.CategoryScience,
	models.CategoryLanguage,
	models.CategoryOther,
}

// ErrUnknownEnum signals drift between the contract schema and this build.
type ErrUnknownEnum struct {
	Enum  string
	Index int
}

func (e *ErrUnknownEnum) Error() string {
	return fmt.Sprintf("unknown %s enum index %d", e.Enum, e.Index)
}

// CategoryFromIndex resolves a category enum index. With strict=true (the
// development setting) an out-of-range index is an error so schema drift
// surfaces immediately; otherwise it lands in the Other bucket, since halting
// the whole stream over a cosmetic field stalls all downstream indexing.
func CategoryFromIndex(idx int, strict bool) (models.CourseCategory, error) {
	if idx >= 0 && idx < len(categories) {
		return categories[idx], nil
	}
	if strict {
		return models.CategoryOther, &ErrUnknownEnum{Enum: "course category", Index: idx}
	}
	return models.CategoryOther, nil
}
