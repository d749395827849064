// Package constants provides shared constants for the DebtEase planner.
package constants

// DateLayout is the output date format for projected payoff dates.
const DateLayout = "2006-01-02"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// DaysPerMonth is the fixed day-count convention used when projecting
	// payoff dates from a month count.
	DaysPerMonth = 30
)

// Simulation constants
const (
	// MaxPayoffMonths is the hard iteration cap for payoff simulations
	// (50 years). Hitting it yields a non-fatal diverged result.
	MaxPayoffMonths = 600

	// MaterialityThreshold is the minimum interest savings, in currency
	// units, required before the avalanche strategy is recommended over
	// snowball. At or above the threshold the recommendation is avalanche.
	MaterialityThreshold = 500.0

	// DefaultBudgetFactor is applied to the sum of minimum payments when
	// the caller does not supply a monthly budget.
	DefaultBudgetFactor = 1.5

	// TimelinePreviewMonths is the number of timeline entries exposed on
	// API surfaces that show a windowed month-by-month preview.
	TimelinePreviewMonths = 12
)

// Payment frequency conversion factors (to monthly equivalents).
const (
	// WeeklyPerMonth converts weekly payments to monthly (52 weeks / 12 months)
	WeeklyPerMonth = 4.333

	// BiweeklyPerMonth converts biweekly payments to monthly (26 payments / 12 months)
	BiweeklyPerMonth = 2.167

	// MonthsPerQuarter converts quarterly payments to monthly
	MonthsPerQuarter = 3
)

// Debt-to-income thresholds, in percent.
const (
	// FrontendHealthyDTI is the healthy ceiling for the housing-only ratio
	FrontendHealthyDTI = 28.0

	// FrontendElevatedDTI is the elevated ceiling for the housing-only ratio
	FrontendElevatedDTI = 31.0

	// FrontendConcerningDTI is the concerning ceiling for the housing-only ratio
	FrontendConcerningDTI = 35.0

	// BackendHealthyDTI is the healthy ceiling for the total-debt ratio
	BackendHealthyDTI = 36.0

	// BackendElevatedDTI is the elevated ceiling for the total-debt ratio
	BackendElevatedDTI = 43.0

	// BackendConcerningDTI is the concerning ceiling for the total-debt ratio
	BackendConcerningDTI = 50.0
)

// Portfolio analysis constants
const (
	// HighInterestRate is the annual rate, in percent, above which a debt
	// is flagged as high interest.
	HighInterestRate = 15.0
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024
)
