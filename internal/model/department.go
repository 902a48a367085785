package model

type Department string

const (
	DepartmentSanitation Department = "Sanitation Department"
	DepartmentRoads      Department = "Roads & Infrastructure"
	DepartmentWater      Department = "Water Supply Department"
	DepartmentDrainage   Department = "Drainage Department"
	DepartmentUnknown    Department = "Unknown Department"
)

// Classifier category names, exactly as the vision model emits them.
const (
	CategoryGarbage          = "Garbage/Waste accumulation"
	CategoryManholeDamage    = "Manholes/drainage opening damage"
	CategoryWaterLeakage     = "Water leakage"
	CategoryDrainageOverflow = "Drainage overflow"
)

var categoryDepartments = map[string]Department{
	CategoryGarbage:          DepartmentSanitation,
	CategoryManholeDamage:    DepartmentRoads,
	CategoryWaterLeakage:     DepartmentWater,
	CategoryDrainageOverflow: DepartmentDrainage,
}

// DepartmentForCategory maps a classifier category to the responsible
// department. Matching is exact-string; anything else routes to
// DepartmentUnknown for manual triage.
func DepartmentForCategory(category string) Department {
	if dept, ok := categoryDepartments[category]; ok {
		return dept
	}
	return DepartmentUnknown
}
