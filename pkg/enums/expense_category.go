package enums

import "fmt"

// ExpenseCategory buckets pharmacy operating expenses.
type ExpenseCategory string

const (
	ExpenseCategoryRent      ExpenseCategory = "RENT"
	ExpenseCategoryUtilities ExpenseCategory = "UTILITIES"
	ExpenseCategorySalary    ExpenseCategory = "SALARY"
	ExpenseCategoryPurchase  ExpenseCategory = "PURCHASE"
	ExpenseCategoryMisc      ExpenseCategory = "MISC"
)

var validExpenseCategories = []ExpenseCategory{
	ExpenseCategoryRent,
	ExpenseCategoryUtilities,
	ExpenseCategorySalary,
	ExpenseCategoryPurchase,
	ExpenseCategoryMisc,
}

// String implements fmt.Stringer.
func (e ExpenseCategory) String() string {
	return string(e)
}

// IsValid reports whether the value is a known ExpenseCategory.
func (e ExpenseCategory) IsValid() bool {
	for _, candidate := range validExpenseCategories {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseExpenseCategory converts raw input into an ExpenseCategory.
func ParseExpenseCategory(value string) (ExpenseCategory, error) {
	for _, candidate := range validExpenseCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid expense category %q", value)
}
