package server

// Exported for testing.
var InjectClientExported = injectClient
