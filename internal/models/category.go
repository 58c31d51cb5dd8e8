package models

import "slices"

// Category classifies a transaction. The set is closed: unknown values are rejected at
// write time.
type Category string

const (
	CategorySalary      Category = "salary"
	CategoryBusiness    Category = "business"
	CategoryInvestment  Category = "investment"
	CategoryGift        Category = "gift"
	CategoryRefund      Category = "refund"
	CategoryOtherIncome Category = "other_income"

	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryHousing       Category = "housing"
	CategoryUtilities     Category = "utilities"
	CategoryHealth        Category = "health"
	CategoryEntertainment Category = "entertainment"
	CategoryShopping      Category = "shopping"
	CategoryEducation     Category = "education"
	CategoryTravel        Category = "travel"
	CategoryDebtPayment   Category = "debt_payment"
	CategorySavings       Category = "savings"
	CategoryOtherExpense  Category = "other_expense"

	CategoryTransfer Category = "transfer"
)

var categoriesByKind = map[TransactionKind][]Category{
	KindIncome: {
		CategorySalary, CategoryBusiness, CategoryInvestment, CategoryGift, CategoryRefund,
		CategoryOtherIncome, CategoryDebtPayment, CategorySavings,
	},
	KindExpense: {
		CategoryFood, CategoryTransport, CategoryHousing, CategoryUtilities, CategoryHealth,
		CategoryEntertainment, CategoryShopping, CategoryEducation, CategoryTravel,
		CategoryDebtPayment, CategorySavings, CategoryOtherExpense,
	},
	KindTransfer: {CategoryTransfer},
}

// ValidFor reports whether c may be used on a transaction of kind k
func (c Category) ValidFor(k TransactionKind) bool {
	return slices.Contains(categoriesByKind[k], c)
}

// Categories lists the categories allowed for kind k
func Categories(k TransactionKind) []Category {
	return slices.Clone(categoriesByKind[k])
}

// DefaultCategory is used when a caller leaves the category empty
func DefaultCategory(k TransactionKind) Category {
	switch k {
	case KindIncome:
		return CategoryOtherIncome
	case KindTransfer:
		return CategoryTransfer
	default:
		return CategoryOtherExpense
	}
}
