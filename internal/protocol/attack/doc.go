// Package attack turns clean exchange plans into labeled attack plans.
//
// Every transform leaves the exchange structurally valid, so the verdict
// depends on the cryptographic defect the attack introduces rather than on
// malformed input. All transform parameters are drawn from the caller's
// random source at injection time, which keeps a seeded session
// reproducible no matter how its exchanges are scheduled.
package attack
