package sass

// Exported for testing.
var (
	ClassifyExported = classify
	SyntaxOfExported = syntaxOf
)
