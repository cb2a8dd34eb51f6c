package testutil

import (
	"testing"

	"github.com/roach88/tesseract/internal/schema"
)

// SalesSchema returns a freshly linked fixture schema.
//
// Cube "sales" (public):
//
//	geography  standard  hierarchies "standard" [Country, State, City] (default)
//	                                 "region"   [Region, Subregion]
//	time       time      hierarchies "calendar" [Year, Quarter, Month, Day] (default)
//	                                 "fiscal"   [Fiscal Year]
//	product    standard  hierarchy   "product"  [Category, Product]
//	currency   standard  hierarchy   "currency" [Currency], default member Currency=USD
//
//	measures: sales_amount (submeasures sales_amount_moe, sales_amount_share),
//	          profit, quantity
//
// Cube "payroll" is restricted to roles "hr" and "admin".
//
// Every call returns a new graph so tests cannot observe each other.
func SalesSchema(t testing.TB) *schema.Schema {
	t.Helper()
	s, err := schema.New("en", SalesCube(), PayrollCube())
	if err != nil {
		t.Fatalf("testutil: build sales schema: %v", err)
	}
	return s
}

// SalesCube returns the unlinked "sales" cube of SalesSchema.
func SalesCube() *schema.Cube {
	return &schema.Cube{
		Name:        "sales",
		Table:       "sales_fact",
		Public:      true,
		Annotations: map[string]string{"source": "ACME Retail", "unit": "USD"},
		Dimensions: []*schema.Dimension{
			{
				Name:                 "geography",
				Type:                 schema.DimensionStandard,
				ForeignKey:           "city_id",
				DefaultHierarchyName: "standard",
				Hierarchies: []*schema.Hierarchy{
					{
						Name:       "standard",
						Table:      "dim_geography",
						PrimaryKey: "city_id",
						Levels: []*schema.Level{
							{
								Name:        "Country",
								KeyColumn:   "country_id",
								NameColumns: map[string]string{"en": "country_name", "es": "country_name_es"},
								Properties: []*schema.Property{
									{Name: "ISO Code", Columns: map[string]string{"": "country_iso"}},
								},
							},
							{
								Name:        "State",
								KeyColumn:   "state_id",
								NameColumns: map[string]string{"en": "state_name"},
								Properties: []*schema.Property{
									{Name: "State Abbreviation", Columns: map[string]string{"": "state_abbr"}},
									{Name: "State Label", Columns: map[string]string{"en": "state_label", "es": "state_label_es"}},
								},
							},
							{
								Name:        "City",
								KeyColumn:   "city_id",
								NameColumns: map[string]string{"": "city_id"},
								Properties: []*schema.Property{
									{Name: "Population", Columns: map[string]string{"": "population"}},
								},
							},
						},
					},
					{
						Name:       "region",
						Table:      "dim_geography",
						PrimaryKey: "city_id",
						Levels: []*schema.Level{
							{Name: "Region", KeyColumn: "region_id", NameColumns: map[string]string{"en": "region_name"}},
							{Name: "Subregion", KeyColumn: "subregion_id", NameColumns: map[string]string{"en": "subregion_name"}},
						},
					},
				},
			},
			{
				Name:                 "time",
				Type:                 schema.DimensionTime,
				ForeignKey:           "date_id",
				DefaultHierarchyName: "calendar",
				Hierarchies: []*schema.Hierarchy{
					{
						Name:       "calendar",
						Table:      "dim_date",
						PrimaryKey: "date_id",
						Levels: []*schema.Level{
							{Name: "Year", KeyColumn: "year", Granularity: schema.GranularityYear},
							{Name: "Quarter", KeyColumn: "quarter_id", NameColumns: map[string]string{"en": "quarter_name"}, Granularity: schema.GranularityQuarter},
							{Name: "Month", KeyColumn: "month_id", NameColumns: map[string]string{"en": "month_name", "es": "month_name_es"}, Granularity: schema.GranularityMonth},
							{Name: "Day", KeyColumn: "date_id", Granularity: schema.GranularityDay},
						},
					},
					{
						Name:       "fiscal",
						Table:      "dim_date",
						PrimaryKey: "date_id",
						Levels: []*schema.Level{
							{Name: "Fiscal Year", KeyColumn: "fiscal_year"},
						},
					},
				},
			},
			{
				Name:       "product",
				Type:       schema.DimensionStandard,
				ForeignKey: "product_id",
				Hierarchies: []*schema.Hierarchy{
					{
						Name:       "product",
						Table:      "dim_product",
						PrimaryKey: "product_id",
						Levels: []*schema.Level{
							{Name: "Category", KeyColumn: "category_id", NameColumns: map[string]string{"en": "category_name"}},
							{
								Name:        "Product",
								KeyColumn:   "product_id",
								NameColumns: map[string]string{"en": "product_name"},
								Properties: []*schema.Property{
									{Name: "SKU", Columns: map[string]string{"": "sku"}},
									{Name: "Brand", Columns: map[string]string{"": "brand"}},
								},
							},
						},
					},
				},
			},
			{
				Name:       "currency",
				Type:       schema.DimensionStandard,
				ForeignKey: "currency_id",
				Hierarchies: []*schema.Hierarchy{
					{
						Name:          "currency",
						Table:         "dim_currency",
						PrimaryKey:    "currency_id",
						DefaultMember: &schema.MemberRef{Level: "Currency", Key: "USD"},
						Levels: []*schema.Level{
							{Name: "Currency", KeyColumn: "currency_id", NameColumns: map[string]string{"en": "currency_name"}},
						},
					},
				},
			},
		},
		Measures: []*schema.Measure{
			{
				Name:       "sales_amount",
				Column:     "amount",
				Aggregator: schema.AggregatorSum,
				Submeasures: []*schema.Measure{
					{Name: "sales_amount_moe", Column: "amount_moe", Aggregator: schema.AggregatorMax},
					{Name: "sales_amount_share", Column: "amount_share", Aggregator: schema.AggregatorAvg},
				},
			},
			{Name: "profit", Column: "profit", Aggregator: schema.AggregatorSum},
			{Name: "quantity", Column: "order_id", Aggregator: schema.AggregatorCount},
		},
	}
}

// PayrollCube returns the unlinked, role-restricted "payroll" cube of SalesSchema.
func PayrollCube() *schema.Cube {
	return &schema.Cube{
		Name:  "payroll",
		Table: "payroll_fact",
		Roles: []string{"hr", "admin"},
		Dimensions: []*schema.Dimension{
			{
				Name:       "department",
				Type:       schema.DimensionStandard,
				ForeignKey: "department_id",
				Hierarchies: []*schema.Hierarchy{
					{
						Name:       "department",
						Table:      "dim_department",
						PrimaryKey: "department_id",
						Levels: []*schema.Level{
							{Name: "Department", KeyColumn: "department_id", NameColumns: map[string]string{"en": "department_name"}},
						},
					},
				},
			},
		},
		Measures: []*schema.Measure{
			{Name: "salary", Column: "salary", Aggregator: schema.AggregatorSum},
		},
	}
}

// GeographySchema returns a minimal schema: cube "sales" with a single
// "geography" dimension (hierarchy "standard": Country, State, City) and the
// measures sales_amount (submeasure sales_amount_moe) and profit.
func GeographySchema(t testing.TB) *schema.Schema {
	t.Helper()
	cube := &schema.Cube{
		Name:   "sales",
		Table:  "sales_fact",
		Public: true,
		Dimensions: []*schema.Dimension{
			{
				Name:       "geography",
				Type:       schema.DimensionStandard,
				ForeignKey: "city_id",
				Hierarchies: []*schema.Hierarchy{
					{
						Name:       "standard",
						Table:      "dim_geography",
						PrimaryKey: "city_id",
						Levels: []*schema.Level{
							{Name: "Country", KeyColumn: "country_id", NameColumns: map[string]string{"en": "country_name"}},
							{Name: "State", KeyColumn: "state_id", NameColumns: map[string]string{"en": "state_name"}},
							{Name: "City", KeyColumn: "city_id", NameColumns: map[string]string{"en": "city_name"}},
						},
					},
				},
			},
		},
		Measures: []*schema.Measure{
			{
				Name:       "sales_amount",
				Column:     "amount",
				Aggregator: schema.AggregatorSum,
				Submeasures: []*schema.Measure{
					{Name: "sales_amount_moe", Column: "amount_moe", Aggregator: schema.AggregatorMax},
				},
			},
			{Name: "profit", Column: "profit", Aggregator: schema.AggregatorSum},
		},
	}
	s, err := schema.New("en", cube)
	if err != nil {
		t.Fatalf("testutil: build geography schema: %v", err)
	}
	return s
}
