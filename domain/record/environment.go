package record

// Environment is the deployment stage a change was shipped to.
type Environment string

// Environment values.
const (
	EnvironmentDev  Environment = "DEV"
	EnvironmentUAT  Environment = "UAT"
	EnvironmentLive Environment = "LIVE"
)

// Environments lists every valid environment in promotion order.
func Environments() []Environment {
	return []Environment{EnvironmentDev, EnvironmentUAT, EnvironmentLive}
}

// ParseEnvironment validates s as an environment name. Matching is exact.
func ParseEnvironment(s string) (Environment, error) {
	for _, e := range Environments() {
		if string(e) == s {
			return e, nil
		}
	}
	return "", NewValidationError("Invalid environment: must be one of DEV, UAT, LIVE")
}

// String returns the environment name.
func (e Environment) String() string { return string(e) }
