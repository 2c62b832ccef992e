package dialect

// Built-in keyword modes, registered when the package is loaded.
var (
	// Nebula is the default mode: broad non-reserved keywords, typed decimal literals.
	Nebula = NewDialect("nebula").
		Describe("default keyword mode; most keywords usable as identifiers").
		Build()

	// ANSI reserves every keyword outside the ansiNonReserved set.
	ANSI = NewDialect("ansi").
		Describe("ANSI keyword reservation").
		AnsiKeywords(true).
		Build()

	// Legacy reads exponent and decimal literals as one legacy decimal kind.
	Legacy = NewDialect("legacy").
		Describe("default keywords, exponent literals read as decimals").
		LegacyExponentAsDecimal(true).
		Build()
)

func init() {
	Register(Nebula)
	Register(ANSI)
	Register(Legacy)
}

// Default returns the dialect used when none is configured.
func Default() *Dialect {
	return Nebula
}
