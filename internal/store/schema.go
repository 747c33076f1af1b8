package store

// Schema DDL. Migrations run on every Open and are idempotent.
const (
	createFactorLibrary = `
CREATE TABLE IF NOT EXISTS factor_library (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    activity TEXT NOT NULL,
    unit TEXT NOT NULL,
    emission_factor REAL NOT NULL,
    scope TEXT,
    scope_category TEXT,
    region TEXT,
    year INTEGER,
    source TEXT,
    version TEXT,
    active INTEGER NOT NULL DEFAULT 1,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`

	createScopeCategories = `
CREATE TABLE IF NOT EXISTS scope_categories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    scope TEXT NOT NULL,
    category_code TEXT NOT NULL,
    category_name TEXT NOT NULL,
    description TEXT,
    source TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    UNIQUE(scope, category_code)
)`

	createAnalysisRuns = `
CREATE TABLE IF NOT EXISTS analysis_runs (
    id TEXT PRIMARY KEY,
    run_name TEXT NOT NULL,
    run_type TEXT NOT NULL,
    run_timestamp TEXT NOT NULL,
    total_co2e REAL,
    payload_json TEXT NOT NULL,
    metadata_json TEXT
)`
)

// ScopeCategory is one row of the GHG Protocol category taxonomy.
type ScopeCategory struct {
	Scope       string `json:"scope"`
	Code        string `json:"category_code"`
	Name        string `json:"category_name"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// seedCategorySource labels the built-in taxonomy rows.
const seedCategorySource = "GHG_Protocol_Default"

// defaultScopeCategories is the GHG Protocol taxonomy seeded on open:
// four scope 1 groups, four scope 2 groups, and the fifteen scope 3
// categories.
var defaultScopeCategories = []ScopeCategory{
	{Scope: "scope1", Code: "stationary_combustion", Name: "Stationary Combustion", Description: "Fuel burned in owned/controlled equipment."},
	{Scope: "scope1", Code: "mobile_combustion", Name: "Mobile Combustion", Description: "Fuel burned in owned/controlled vehicles."},
	{Scope: "scope1", Code: "process_emissions", Name: "Process Emissions", Description: "Direct process emissions from industrial operations."},
	{Scope: "scope1", Code: "fugitive_emissions", Name: "Fugitive Emissions", Description: "Leakage of refrigerants and other gases."},
	{Scope: "scope2", Code: "purchased_electricity", Name: "Purchased Electricity", Description: "Indirect emissions from purchased electricity."},
	{Scope: "scope2", Code: "purchased_steam", Name: "Purchased Steam", Description: "Indirect emissions from imported steam."},
	{Scope: "scope2", Code: "purchased_heating", Name: "Purchased Heating", Description: "Indirect emissions from district heating."},
	{Scope: "scope2", Code: "purchased_cooling", Name: "Purchased Cooling", Description: "Indirect emissions from district cooling."},
	{Scope: "scope3", Code: "cat1_purchased_goods_services", Name: "Category 1 Purchased Goods and Services", Description: "Upstream emissions from purchased goods/services."},
	{Scope: "scope3", Code: "cat2_capital_goods", Name: "Category 2 Capital Goods", Description: "Upstream emissions from capital goods."},
	{Scope: "scope3", Code: "cat3_fuel_energy_related", Name: "Category 3 Fuel and Energy Related", Description: "Fuel and energy activities not included in Scope 1/2."},
	{Scope: "scope3", Code: "cat4_upstream_transport", Name: "Category 4 Upstream Transportation", Description: "Upstream transport and distribution."},
	{Scope: "scope3", Code: "cat5_waste_generated", Name: "Category 5 Waste Generated", Description: "Upstream waste treatment from operations."},
	{Scope: "scope3", Code: "cat6_business_travel", Name: "Category 6 Business Travel", Description: "Business travel in non-owned assets."},
	{Scope: "scope3", Code: "cat7_employee_commuting", Name: "Category 7 Employee Commuting", Description: "Commuting and remote work emissions."},
	{Scope: "scope3", Code: "cat8_upstream_leased_assets", Name: "Category 8 Upstream Leased Assets", Description: "Leased assets not in Scope 1/2."},
	{Scope: "scope3", Code: "cat9_downstream_transport", Name: "Category 9 Downstream Transportation", Description: "Downstream transport and distribution."},
	{Scope: "scope3", Code: "cat10_processing_sold_products", Name: "Category 10 Processing of Sold Products", Description: "Processing of intermediate sold products."},
	{Scope: "scope3", Code: "cat11_use_sold_products", Name: "Category 11 Use of Sold Products", Description: "Use-phase emissions of sold products."},
	{Scope: "scope3", Code: "cat12_end_of_life", Name: "Category 12 End-of-Life Treatment", Description: "End-of-life treatment of sold products."},
	{Scope: "scope3", Code: "cat13_downstream_leased_assets", Name: "Category 13 Downstream Leased Assets", Description: "Downstream leased assets."},
	{Scope: "scope3", Code: "cat14_franchises", Name: "Category 14 Franchises", Description: "Franchise operation emissions."},
	{Scope: "scope3", Code: "cat15_investments", Name: "Category 15 Investments", Description: "Financed and investment-related emissions."},
}
