// Package auth gates the translation endpoints behind optional credentials.
//
// Authenticators vote Yes, No or Abstain on a request and an AuthChain
// takes the first vote that is not Abstain. When all abstain, the chain's
// DefaultDecision applies. Check runs a chain for the HTTP adapter after the
// method gate and route lookup, and stores the admitted Identity in the
// request context.
package auth
