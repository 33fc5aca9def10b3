package engine

import (
	"github.com/shopspring/decimal"
)

const defaultAnnualizationFactor = 252

type PortfolioConfig struct {
	allowShortSelling bool
	allowNegativeCash bool
}

// NewPortfolioConfig builds a ledger policy. Passing true for both matches a
// frictionless account with no margin model.
func NewPortfolioConfig(allowShortSelling, allowNegativeCash bool) PortfolioConfig {
	return PortfolioConfig{
		allowShortSelling: allowShortSelling,
		allowNegativeCash: allowNegativeCash,
	}
}

func DefaultPortfolioConfig() PortfolioConfig {
	return NewPortfolioConfig(true, true)
}

type ReportingConfig struct {
	annualizationFactor int
	sharpeRiskFreeRate  decimal.Decimal
}

// NewReportingConfig sets the periods-per-year used to annualize the Sharpe
// ratio and the annual risk-free rate subtracted from per-period returns.
// A non-positive factor falls back to 252.
func NewReportingConfig(annualizationFactor int, sharpeRiskFreeRate decimal.Decimal) ReportingConfig {
	if annualizationFactor <= 0 {
		annualizationFactor = defaultAnnualizationFactor
	}
	return ReportingConfig{
		annualizationFactor: annualizationFactor,
		sharpeRiskFreeRate:  sharpeRiskFreeRate,
	}
}

func DefaultReportingConfig() ReportingConfig {
	return NewReportingConfig(defaultAnnualizationFactor, decimal.Zero)
}
