package commands

// ClientContextKey is used for storing the client in context for commands.
// The entry point and tests must use this same key.
var ClientContextKey = &struct{}{}
