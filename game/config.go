package game

import "github.com/tolelom/vivorun/core"

// Initialize stores the token-contract address. Calling it again overwrites
// the previous address.
func Initialize(st core.State, tokenAddress string) error {
	return st.SetTokenAddress(tokenAddress)
}

// TokenAddress returns the configured token-contract address, or "".
func TokenAddress(st core.State) (string, error) {
	return st.GetTokenAddress()
}
