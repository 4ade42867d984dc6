package domain

// Session pairs an authenticated principal with the call capabilities opened
// on its behalf. Tokens is parallel to the registry (one ledger client per
// registered asset, in registry order). The session owns nothing beyond its
// identity; it is created on successful authentication and discarded on
// logout or expiry.
type Session struct {
	Principal string
	Tokens    []TokenLedger
	Exchange  ExchangeLedger
	Faucet    Faucet
}
