package risk

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/carmandale/spy-fly/internal/marketdata"
	"github.com/carmandale/spy-fly/internal/spread"
)

var (
	ErrInvalidAccountSize = errors.New("account size must be positive")
	ErrInvalidNetDebit    = errors.New("net debit must be positive")
)

// ForcedMinimumWarning is set on a PositionSize when the cap allows less
// than one contract and a single contract is used anyway.
const ForcedMinimumWarning = "position size forced to 1 contract; cost exceeds the buying power cap"

type Config struct {
	// MaxBuyingPowerPct is a fraction of the account, so 0.05 means 5%.
	MaxBuyingPowerPct float64
	MinRiskReward     float64
}

func DefaultConfig() Config {
	return Config{MaxBuyingPowerPct: 0.05, MinRiskReward: 1.0}
}

func (c Config) Validate() error {
	var errs []error
	if c.MaxBuyingPowerPct <= 0 || c.MaxBuyingPowerPct > 1 {
		errs = append(errs, fmt.Errorf("max_buying_power_pct must be in (0, 1], got %v", c.MaxBuyingPowerPct))
	}
	if c.MinRiskReward <= 0 {
		errs = append(errs, fmt.Errorf("min_risk_reward must be positive, got %v", c.MinRiskReward))
	}
	return errors.Join(errs...)
}

// Check is the outcome of one rule against one candidate.
type Check struct {
	Rule    string  `json:"rule"`
	Passed  bool    `json:"passed"`
	Actual  float64 `json:"actual"`
	Limit   float64 `json:"limit"`
	Message string  `json:"message,omitempty"`
}

type PositionSize struct {
	Contracts          int     `json:"contracts"`
	MaxContracts       float64 `json:"max_contracts"`
	MaxPositionValue   float64 `json:"max_position_value"`
	TotalCost          float64 `json:"total_cost"`
	BuyingPowerUsedPct float64 `json:"buying_power_used_pct"`
	Warning            string  `json:"warning,omitempty"`
}

// Validation aggregates every check for a candidate.
type Validation struct {
	Valid  bool     `json:"valid"`
	Checks []Check  `json:"checks"`
	Errors []string `json:"errors,omitempty"`
}

type Rejection struct {
	Candidate spread.Candidate `json:"candidate"`
	Reason    string           `json:"reason"`
}

// BatchResult partitions candidates, keeping input order in each list.
type BatchResult struct {
	Valid   []spread.Candidate `json:"valid"`
	Invalid []Rejection        `json:"invalid"`
}

type Validator struct {
	cfg    Config
	logger *zap.Logger
}

func NewValidator(cfg Config, logger *zap.Logger) (*Validator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("risk config: %w", err)
	}
	return &Validator{cfg: cfg, logger: logger}, nil
}

// ValidAccountSize reports whether size is a positive, finite amount.
func ValidAccountSize(size float64) bool {
	return size > 0 && !math.IsInf(size, 0)
}

func (v *Validator) Config() Config {
	return v.cfg
}

// ValidateBuyingPower compares the candidate's sized buying-power usage
// against the cap.
func (v *Validator) ValidateBuyingPower(c spread.Candidate, accountSize float64) (Check, error) {
	if !ValidAccountSize(accountSize) {
		return Check{}, fmt.Errorf("%w: got %v", ErrInvalidAccountSize, accountSize)
	}

	check := Check{
		Rule:   "buying_power",
		Actual: c.BuyingPowerUsedPct,
		Limit:  v.cfg.MaxBuyingPowerPct,
		Passed: c.BuyingPowerUsedPct <= v.cfg.MaxBuyingPowerPct+1e-9,
	}
	if !check.Passed {
		check.Message = fmt.Sprintf("uses %.2f%% of buying power, limit %.2f%%",
			c.BuyingPowerUsedPct*100, v.cfg.MaxBuyingPowerPct*100)
	}
	return check, nil
}

// ValidateRiskReward fails closed when the net debit is not positive,
// whatever the stored ratio says.
func (v *Validator) ValidateRiskReward(c spread.Candidate) Check {
	check := Check{
		Rule:  "risk_reward",
		Limit: v.cfg.MinRiskReward,
	}
	if c.NetDebit <= 0 {
		check.Message = fmt.Sprintf("net debit %.4f is not positive", c.NetDebit)
		return check
	}

	check.Actual = c.RiskRewardRatio
	check.Passed = c.RiskRewardRatio >= v.cfg.MinRiskReward
	if !check.Passed {
		check.Message = fmt.Sprintf("risk/reward %.2f below minimum %.2f", c.RiskRewardRatio, v.cfg.MinRiskReward)
	}
	return check
}

// CalculatePositionSize floors the number of contracts that fit in the
// buying-power cap. When that is zero a single contract is returned with
// Warning set; the caller must inspect it.
func (v *Validator) CalculatePositionSize(accountSize, netDebit float64, capOverride *float64) (PositionSize, error) {
	if !ValidAccountSize(accountSize) {
		return PositionSize{}, fmt.Errorf("%w: got %v", ErrInvalidAccountSize, accountSize)
	}
	if !(netDebit > 0) || math.IsInf(netDebit, 0) {
		return PositionSize{}, fmt.Errorf("%w: got %v", ErrInvalidNetDebit, netDebit)
	}

	limit := v.cfg.MaxBuyingPowerPct
	if capOverride != nil {
		if *capOverride <= 0 || *capOverride > 1 {
			return PositionSize{}, fmt.Errorf("buying power cap must be in (0, 1], got %v", *capOverride)
		}
		limit = *capOverride
	}

	costPerContract := netDebit * marketdata.ContractMultiplier
	size := PositionSize{
		MaxPositionValue: accountSize * limit,
	}
	size.MaxContracts = size.MaxPositionValue / costPerContract
	size.Contracts = int(math.Floor(size.MaxContracts + 1e-9))

	if size.Contracts < 1 {
		size.Contracts = 1
		size.Warning = ForcedMinimumWarning
	}

	size.TotalCost = float64(size.Contracts) * costPerContract
	size.BuyingPowerUsedPct = size.TotalCost / accountSize
	return size, nil
}

// Size fills the candidate's sizing fields.
func (v *Validator) Size(c spread.Candidate, accountSize float64) (spread.Candidate, error) {
	size, err := v.CalculatePositionSize(accountSize, c.NetDebit, nil)
	if err != nil {
		return c, err
	}
	c.Contracts = size.Contracts
	c.TotalCost = size.TotalCost
	c.BuyingPowerUsedPct = size.BuyingPowerUsedPct
	c.SizingWarning = size.Warning
	return c, nil
}

// ValidateSpread runs every check against a sized candidate.
func (v *Validator) ValidateSpread(c spread.Candidate, accountSize float64) (Validation, error) {
	bp, err := v.ValidateBuyingPower(c, accountSize)
	if err != nil {
		return Validation{}, err
	}
	rr := v.ValidateRiskReward(c)

	result := Validation{Valid: bp.Passed && rr.Passed, Checks: []Check{bp, rr}}
	for _, check := range result.Checks {
		if !check.Passed {
			result.Errors = append(result.Errors, check.Message)
		}
	}
	if c.SizingWarning != "" {
		result.Errors = append(result.Errors, c.SizingWarning)
	}
	return result, nil
}

// ValidateBatch partitions candidates into valid and invalid lists.
func (v *Validator) ValidateBatch(candidates []spread.Candidate, accountSize float64) (BatchResult, error) {
	if !ValidAccountSize(accountSize) {
		return BatchResult{}, fmt.Errorf("%w: got %v", ErrInvalidAccountSize, accountSize)
	}

	result := BatchResult{
		Valid:   make([]spread.Candidate, 0, len(candidates)),
		Invalid: make([]Rejection, 0),
	}
	for _, c := range candidates {
		validation, err := v.ValidateSpread(c, accountSize)
		if err != nil {
			return BatchResult{}, err
		}
		if validation.Valid {
			result.Valid = append(result.Valid, c)
			continue
		}
		result.Invalid = append(result.Invalid, Rejection{Candidate: c, Reason: simplify(validation)})
	}

	v.logger.Debug("validated spreads",
		zap.Int("valid", len(result.Valid)),
		zap.Int("invalid", len(result.Invalid)),
	)
	return result, nil
}

// simplify reduces a failed validation to the name of its first failing rule.
func simplify(v Validation) string {
	for _, check := range v.Checks {
		if check.Passed {
			continue
		}
		switch check.Rule {
		case "buying_power":
			return "exceeds buying power limit"
		case "risk_reward":
			return "risk/reward below minimum"
		}
	}
	return "validation failed"
}
