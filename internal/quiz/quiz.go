package quiz

import (
	"context"
	"errors"

	product "github.com/plywoodshop/storefront/internal/products"
	"github.com/plywoodshop/storefront/pkg/enums"
	pkgerrors "github.com/plywoodshop/storefront/pkg/errors"
	"github.com/plywoodshop/storefront/pkg/pagination"
	"github.com/shopspring/decimal"
)

// DefaultLimit is how many recommendations are returned when none is requested.
const DefaultLimit = 6

// Catalog type codes and waterproofing classes the quiz maps answers onto.
const (
	TypeFK  = "ФК"
	TypeFSF = "ФСФ"
	TypeFOF = "ФОФ"

	WaterproofingModerate = "moderate"
	WaterproofingHigh     = "high"
)

// Relaxation steps reported when the strict filter found nothing.
const (
	RelaxedThickness = "thickness"
	RelaxedBudget    = "budget"
)

var typesByUsage = map[enums.QuizUsage][]string{
	enums.QuizUsageInterior:  {TypeFK},
	enums.QuizUsageFurniture: {TypeFK, TypeFSF},
	enums.QuizUsageExterior:  {TypeFSF, TypeFOF},
	enums.QuizUsageFormwork:  {TypeFOF},
	enums.QuizUsagePackaging: {TypeFK, TypeFSF},
}

var waterproofingByMoisture = map[enums.QuizMoisture][]string{
	enums.QuizMoistureHumid: {WaterproofingModerate, WaterproofingHigh},
	enums.QuizMoistureWet:   {WaterproofingHigh},
}

// Sanded faces are graded 1/1 through 2/2; lower grades are unsanded.
var sandedGrades = []string{"1/1", "1/2", "2/2"}

// Answers are the raw wizard submissions.
type Answers struct {
	Usage     string `json:"usage"`
	Moisture  string `json:"moisture"`
	Thickness string `json:"thickness"`
	Finish    string `json:"finish"`
	Budget    *int   `json:"budget,omitempty"`
}

// Result carries the recommended products and how the filter was loosened.
type Result struct {
	Products []product.ProductDTO       `json:"products"`
	Relaxed  []string                   `json:"relaxed"`
	Filters  product.ProductListFilters `json:"filters"`
}

type attempt struct {
	filters product.ProductListFilters
	relaxed []string
}

type productLister interface {
	List(ctx context.Context, input product.ListProductsInput) (*product.ProductListResult, error)
}

// Service turns quiz answers into catalog recommendations.
type Service interface {
	Recommend(ctx context.Context, answers Answers, limit int) (*Result, error)
}

type service struct {
	products productLister
}

// NewService builds the quiz recommender over the catalog.
func NewService(products productLister) (Service, error) {
	if products == nil {
		return nil, errors.New("product lister required")
	}
	return &service{products: products}, nil
}

// Recommend runs the strict filter first, then drops the thickness
// constraint, then the budget, stopping at the first non-empty result.
func (s *service) Recommend(ctx context.Context, answers Answers, limit int) (*Result, error) {
	strict, err := BuildFilters(answers)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	attempts := []attempt{{filters: strict}}
	if strict.ThicknessMin != nil || strict.ThicknessMax != nil {
		loosened := strict
		loosened.ThicknessMin, loosened.ThicknessMax = nil, nil
		attempts = append(attempts, attempt{filters: loosened, relaxed: []string{RelaxedThickness}})
	}
	if strict.PriceMax != nil {
		last := attempts[len(attempts)-1]
		loosened := last.filters
		loosened.PriceMax = nil
		relaxed := append(append([]string{}, last.relaxed...), RelaxedBudget)
		attempts = append(attempts, attempt{filters: loosened, relaxed: relaxed})
	}

	var result *Result
	for _, try := range attempts {
		page, err := s.products.List(ctx, product.ListProductsInput{
			Filters:    try.filters,
			Pagination: pagination.Params{Page: 1, Limit: limit},
		})
		if err != nil {
			return nil, err
		}
		result = &Result{
			Products: page.Products,
			Relaxed:  try.relaxed,
			Filters:  try.filters,
		}
		if len(page.Products) > 0 {
			break
		}
	}
	if result.Relaxed == nil {
		result.Relaxed = []string{}
	}
	return result, nil
}

// BuildFilters validates the answers and maps them onto a catalog filter.
func BuildFilters(answers Answers) (product.ProductListFilters, error) {
	usage, err := enums.ParseQuizUsage(answers.Usage)
	if err != nil {
		return product.ProductListFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quiz answer")
	}
	moisture, err := enums.ParseQuizMoisture(answers.Moisture)
	if err != nil {
		return product.ProductListFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quiz answer")
	}
	thickness, err := enums.ParseQuizThickness(answers.Thickness)
	if err != nil {
		return product.ProductListFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quiz answer")
	}
	finish, err := enums.ParseQuizFinish(answers.Finish)
	if err != nil {
		return product.ProductListFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quiz answer")
	}
	if answers.Budget != nil && *answers.Budget <= 0 {
		return product.ProductListFilters{}, pkgerrors.New(pkgerrors.CodeValidation, "budget must be positive")
	}

	inStock := true
	filters := product.ProductListFilters{
		Types:         append([]string(nil), typesByUsage[usage]...),
		Waterproofing: append([]string(nil), waterproofingByMoisture[moisture]...),
		InStock:       &inStock,
		Sort:          product.SortDefault,
	}

	switch thickness {
	case enums.QuizThicknessThin:
		filters.ThicknessMax = decimalPtr(6)
	case enums.QuizThicknessMedium:
		filters.ThicknessMin = decimalPtr(7)
		filters.ThicknessMax = decimalPtr(15)
	case enums.QuizThicknessThick:
		filters.ThicknessMin = decimalPtr(16)
	}

	switch finish {
	case enums.QuizFinishSanded:
		filters.Grades = append([]string(nil), sandedGrades...)
	case enums.QuizFinishLaminated:
		filters.Types = []string{TypeFOF}
	}

	if answers.Budget != nil {
		budget := *answers.Budget
		filters.PriceMax = &budget
	}
	return filters, nil
}

func decimalPtr(mm int64) *decimal.Decimal {
	d := decimal.NewFromInt(mm)
	return &d
}
